package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresSession manages the connection to PostgreSQL
type PostgresSession struct {
	conn *pgx.Conn
}

// NewPostgresSession creates a new PostgreSQL session
func NewPostgresSession(ctx context.Context, connString string) (*PostgresSession, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresSession{conn: conn}, nil
}

// Product implements Session.
func (s *PostgresSession) Product() Product { return Postgres }

// Execute implements Session.
func (s *PostgresSession) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// QueryRow implements Session.
func (s *PostgresSession) QueryRow(ctx context.Context, query string, args ...any) Row {
	return s.conn.QueryRow(ctx, query, args...)
}

// Close closes the database connection
func (s *PostgresSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
