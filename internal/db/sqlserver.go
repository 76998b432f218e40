package db

import (
	"context"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// NewSQLServerSession creates a new SQL Server session
func NewSQLServerSession(ctx context.Context, connString string) (*SQLSession, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(connString); err != nil {
		return nil, fmt.Errorf("sqlserver dsn: %w", err)
	}

	s, err := openSQL(ctx, SQLServer, "sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQL Server: %w", err)
	}
	return s, nil
}
