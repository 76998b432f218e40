package db

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// NewMySQLSession creates a new MySQL session
func NewMySQLSession(ctx context.Context, connString string) (*SQLSession, error) {
	if _, err := mysql.ParseDSN(connString); err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}

	s, err := openSQL(ctx, MySQL, "mysql", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return s, nil
}
