package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLSession is a Session over database/sql. It pins one *sql.Conn so that
// session-scoped settings (SET IDENTITY_INSERT, PRAGMA) apply to every
// statement issued through it.
type SQLSession struct {
	db      *sql.DB
	conn    *sql.Conn
	product Product
}

func openSQL(ctx context.Context, product Product, driver, dsn string) (*SQLSession, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	return &SQLSession{db: db, conn: conn, product: product}, nil
}

// Product implements Session.
func (s *SQLSession) Product() Product { return s.product }

// Execute implements Session.
func (s *SQLSession) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// DDL on some drivers reports no count.
		return 0, nil
	}
	return n, nil
}

// QueryRow implements Session.
func (s *SQLSession) QueryRow(ctx context.Context, query string, args ...any) Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// Close returns the connection and closes the pool.
func (s *SQLSession) Close(context.Context) error {
	return errors.Join(s.conn.Close(), s.db.Close())
}
