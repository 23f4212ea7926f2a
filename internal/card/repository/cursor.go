package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dario/cardvault/internal/database"
	"github.com/dario/cardvault/internal/telemetry"
)

// Cursor reads the output of a procedure call. It owns the connection and transaction of
// the call until Close. An empty cursor has no session and yields no rows.
type Cursor struct {
	rows      *sql.Rows
	session   *database.Session
	telemetry *telemetry.Telemetry
	call      telemetry.Call
	failed    bool
}

// EmptyCursor returns a cursor without rows.
func EmptyCursor() *Cursor {
	return &Cursor{}
}

// Empty reports whether the procedure produced no cursor.
func (c *Cursor) Empty() bool {
	return c.rows == nil
}

// Next reads the next row. It returns false once the cursor is exhausted.
func (c *Cursor) Next(ctx context.Context) (Row, bool, error) {
	if c.rows == nil {
		return Row{}, false, nil
	}

	call := c.call
	call.Stage = telemetry.StageCursorRead

	var (
		row   Row
		found bool
	)
	err := c.telemetry.Run(ctx, call, func(ctx context.Context) error {
		if !c.rows.Next() {
			return c.rows.Err()
		}

		columns, err := c.rows.Columns()
		if err != nil {
			return err
		}

		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := c.rows.Scan(targets...); err != nil {
			return err
		}

		row = NewRow(columns, values)
		found = true
		return nil
	})
	if err != nil {
		c.failed = true
		return Row{}, false, err
	}
	return row, found, nil
}

// Close releases the rows and ends the transaction, committing unless a read failed. The
// connection goes back to the pool on every path. Close is idempotent.
func (c *Cursor) Close() error {
	if c.session == nil {
		return nil
	}

	var rowsErr error
	if c.rows != nil {
		rowsErr = c.rows.Close()
	}

	var endErr error
	if c.failed || rowsErr != nil {
		endErr = c.session.Rollback()
	} else {
		endErr = c.session.Commit()
	}
	c.session = nil

	return errors.Join(rowsErr, endErr)
}
