package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tordrt/tablesmith/internal/applier"
	"github.com/tordrt/tablesmith/internal/db"
	"github.com/tordrt/tablesmith/internal/syntax"
)

// BaseData seeds freshly created tables with the rows their document
// declares.
type BaseData struct {
	doc    *Document
	logger *slog.Logger
}

// NewBaseData returns a seeder for doc.
func NewBaseData(doc *Document, logger *slog.Logger) *BaseData {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseData{doc: doc, logger: logger}
}

// SeedTable implements applier.Seeder. Tables without seed rows are left
// empty.
func (b *BaseData) SeedTable(ctx context.Context, s db.Session, ev *applier.TableCreated) error {
	spec, ok := b.doc.Table(ev.Table)
	if !ok || len(spec.Seed) == 0 {
		return nil
	}

	p, err := syntax.ForProduct(s.Product())
	if err != nil {
		return err
	}

	explicitIdentity := false
	if id, ok := spec.IdentityColumn(); ok {
		explicitIdentity = setsColumn(spec.Seed, id.Name)
	}

	identityOn := ""
	if explicitIdentity {
		identityOn = p.IdentityInsert(spec.Table, true)
	}
	if identityOn != "" {
		if _, err := s.Execute(ctx, identityOn); err != nil {
			return fmt.Errorf("failed to enable identity insert: %w", err)
		}
	}

	for i, row := range spec.Seed {
		columns := b.rowColumns(spec, row)
		args := make([]any, len(columns))
		for j, col := range columns {
			args[j] = row[col]
		}
		if _, err := s.Execute(ctx, p.Insert(spec.Table, columns), args...); err != nil {
			return fmt.Errorf("failed to insert seed row %d: %w", i, err)
		}
	}

	if identityOn != "" {
		if _, err := s.Execute(ctx, p.IdentityInsert(spec.Table, false)); err != nil {
			return fmt.Errorf("failed to disable identity insert: %w", err)
		}
	}

	if explicitIdentity {
		if stmt := p.IdentitySync(spec.Table); stmt != "" {
			if _, err := s.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("failed to advance identity past seed rows: %w", err)
			}
		}
	}

	b.logger.Debug("table seeded", "table", ev.Table, "rows", len(spec.Seed))
	return nil
}

// rowColumns returns the row's columns in table declaration order. Keys
// that are not columns were rejected by Parse; any left over sort last.
func (b *BaseData) rowColumns(spec TableSpec, row map[string]any) []string {
	columns := make([]string, 0, len(row))
	seen := make(map[string]bool, len(row))
	for _, c := range spec.Columns {
		if _, ok := row[c.Name]; ok {
			columns = append(columns, c.Name)
			seen[c.Name] = true
		}
	}
	var extra []string
	for k := range row {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}

func setsColumn(rows []map[string]any, column string) bool {
	for _, row := range rows {
		if _, ok := row[column]; ok {
			return true
		}
	}
	return false
}
