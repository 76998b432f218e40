//go:build integration
// +build integration

package tablesmith

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tordrt/tablesmith/internal/applier"
	"github.com/tordrt/tablesmith/internal/bootstrap"
	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/metrics"
)

// databaseURLs returns the URLs to run the bootstrap against. SQLite always
// runs on a temporary file; server products run when their variable is set.
func databaseURLs(t *testing.T) map[string]string {
	t.Helper()

	urls := map[string]string{
		"sqlite": "sqlite://" + filepath.Join(t.TempDir(), "tablesmith.db"),
	}
	for name, env := range map[string]string{
		"postgres":  "POSTGRES_TEST_URL",
		"mysql":     "MYSQL_TEST_URL",
		"sqlserver": "SQLSERVER_TEST_URL",
	} {
		if url := os.Getenv(env); url != "" {
			urls[name] = url
		}
	}
	return urls
}

func TestInitializeIntegration(t *testing.T) {
	ctx := context.Background()

	doc, err := bootstrap.Parse([]byte(shopSchema))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	for name, url := range databaseURLs(t) {
		t.Run(name, func(t *testing.T) {
			m := metrics.New()
			opts := &Options{Overwrite: true, Metrics: m}

			// Product first so overwrite can drop Category without a dangling reference.
			cleanup(t, url, "Product", "Category")

			if err := Initialize(ctx, url, doc, opts); err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}

			session, err := db.Open(ctx, url)
			if err != nil {
				t.Fatalf("Failed to connect: %v", err)
			}
			defer func() { _ = session.Close(ctx) }()

			a, err := applier.New(session)
			if err != nil {
				t.Fatalf("applier.New() unexpected error: %v", err)
			}
			for _, table := range []string{"Category", "Product"} {
				exists, err := a.TableExists(ctx, table)
				if err != nil {
					t.Fatalf("TableExists(%s) unexpected error: %v", table, err)
				}
				if !exists {
					t.Errorf("Expected table %s to exist", table)
				}
			}

			var count int64
			query := "SELECT COUNT(*) FROM " + a.Provider().QuoteTableName("Category")
			if err := session.QueryRow(ctx, query).Scan(&count); err != nil {
				t.Fatalf("Failed to count seed rows: %v", err)
			}
			if count != 1 {
				t.Errorf("Category rows = %d, want 1", count)
			}

			// A second run without overwrite leaves everything in place.
			if err := Initialize(ctx, url, doc, &Options{}); err != nil {
				t.Fatalf("second Initialize() unexpected error: %v", err)
			}
			if err := session.QueryRow(ctx, query).Scan(&count); err != nil {
				t.Fatalf("Failed to count seed rows: %v", err)
			}
			if count != 1 {
				t.Errorf("Category rows after rerun = %d, want 1", count)
			}

			if err := a.DropTable(ctx, "Product"); err != nil {
				t.Fatalf("DropTable() unexpected error: %v", err)
			}
			if exists, _ := a.TableExists(ctx, "Product"); exists {
				t.Error("Expected Product to be gone after DropTable")
			}
		})
	}
}

func cleanup(t *testing.T, url string, tables ...string) {
	t.Helper()
	ctx := context.Background()

	session, err := db.Open(ctx, url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = session.Close(ctx) }()

	a, err := applier.New(session)
	if err != nil {
		t.Fatalf("applier.New() unexpected error: %v", err)
	}
	for _, table := range tables {
		if exists, err := a.TableExists(ctx, table); err == nil && exists {
			if err := a.DropTable(ctx, table); err != nil {
				t.Fatalf("Failed to drop %s: %v", table, err)
			}
		}
	}
}
