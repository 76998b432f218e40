package db

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteSession creates a new SQLite session
func NewSQLiteSession(ctx context.Context, path string) (*SQLSession, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	s, err := openSQL(ctx, SQLite, "sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// Inline foreign keys are only enforced with this pragma on.
	if _, err := s.Execute(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return s, nil
}
