package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Querier represents a database query executor (either *sql.DB, *sql.Conn or *sql.Tx).
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session pins one pooled connection and one transaction for the lifetime of a store call.
// Server-side cursors live inside the transaction, so a session stays open until its
// cursor has been read. Exactly one of Commit or Rollback must be called.
type Session struct {
	conn *sql.Conn
	tx   *sql.Tx
	done bool
}

// Begin acquires a connection from db and starts a transaction on it.
func Begin(ctx context.Context, db *sql.DB) (*Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &Session{conn: conn, tx: tx}, nil
}

// Tx returns the session transaction.
func (s *Session) Tx() *sql.Tx {
	return s.tx
}

// Commit commits the transaction and returns the connection to the pool.
func (s *Session) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	return errors.Join(s.tx.Commit(), s.conn.Close())
}

// Rollback aborts the transaction and returns the connection to the pool.
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		err = nil
	}
	return errors.Join(err, s.conn.Close())
}
