package repository

import (
	"context"
	"database/sql"

	"github.com/dario/cardvault/internal/database"
	"github.com/dario/cardvault/internal/telemetry"
)

// Gateway executes procedures against one connection target. Every call acquires its own
// pooled connection and transaction and is instrumented per stage: execute, cursor_open
// and cursor_read.
type Gateway struct {
	db        *sql.DB
	dialect   Dialect
	telemetry *telemetry.Telemetry
	target    telemetry.Target
}

// NewGateway creates a Gateway. target is only used to tag spans.
func NewGateway(db *sql.DB, dialect Dialect, tel *telemetry.Telemetry, target telemetry.Target) *Gateway {
	return &Gateway{
		db:        db,
		dialect:   dialect,
		telemetry: tel,
		target:    target,
	}
}

// Dialect returns the dialect of the gateway.
func (g *Gateway) Dialect() Dialect {
	return g.dialect
}

// Execute runs procedure with params and returns its opened output cursor. Any failure is
// a *StoreExecutionError. The caller must Close the cursor.
func (g *Gateway) Execute(ctx context.Context, procedure string, params []Param) (*Cursor, error) {
	cursor, err := g.call(ctx, procedure, params, 0)
	if err != nil {
		return nil, g.executionError(ctx, procedure, err)
	}
	return cursor, nil
}

// ProbeParameterName calls procedure with value bound to each candidate name in order and
// returns the cursor of the first attempt that is not rejected with a binding error, even
// when that cursor holds no rows. A non-binding failure aborts the probe. When every
// candidate is rejected the result is an empty cursor.
func (g *Gateway) ProbeParameterName(
	ctx context.Context,
	procedure string,
	candidates []string,
	value any,
) (*Cursor, error) {
	for i, name := range candidates {
		params := []Param{{Name: name, Value: value}}

		cursor, err := g.call(ctx, procedure, params, i+1)
		if err == nil {
			return cursor, nil
		}
		if !IsBindingError(err) {
			return nil, g.executionError(ctx, procedure, err)
		}
	}
	return EmptyCursor(), nil
}

// QueryScalar runs a constant read statement and returns the first column of its first
// row.
func (g *Gateway) QueryScalar(ctx context.Context, query string) (any, error) {
	call := telemetry.Call{
		Operation: telemetry.OperationFromContext(ctx),
		Stage:     telemetry.StageQuery,
		Procedure: query,
		Target:    g.target,
	}

	value, err := telemetry.Observe(ctx, g.telemetry, call, func(ctx context.Context) (any, error) {
		var value any
		if err := g.db.QueryRowContext(ctx, query).Scan(&value); err != nil {
			return nil, err
		}
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		return value, nil
	})
	if err != nil {
		return nil, g.executionError(ctx, query, err)
	}
	return value, nil
}

func (g *Gateway) call(ctx context.Context, procedure string, params []Param, attempt int) (*Cursor, error) {
	call := telemetry.Call{
		Operation: telemetry.OperationFromContext(ctx),
		Procedure: procedure,
		Attempt:   attempt,
		Target:    g.target,
	}

	var (
		session *database.Session
		ref     CursorRef
	)
	executeCall := call
	executeCall.Stage = telemetry.StageExecute
	err := g.telemetry.Run(ctx, executeCall, func(ctx context.Context) error {
		s, err := database.Begin(ctx, g.db)
		if err != nil {
			return err
		}
		ref, err = g.dialect.Execute(ctx, s.Tx(), procedure, params)
		if err != nil {
			_ = s.Rollback()
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	openCall := call
	openCall.Stage = telemetry.StageCursorOpen
	rows, err := telemetry.Observe(ctx, g.telemetry, openCall, func(ctx context.Context) (*sql.Rows, error) {
		return g.dialect.Open(ctx, session.Tx(), ref)
	})
	if err != nil {
		_ = session.Rollback()
		return nil, err
	}

	return &Cursor{
		rows:      rows,
		session:   session,
		telemetry: g.telemetry,
		call:      call,
	}, nil
}

func (g *Gateway) executionError(ctx context.Context, procedure string, err error) error {
	return &StoreExecutionError{
		Operation: telemetry.OperationFromContext(ctx),
		Procedure: procedure,
		Err:       err,
	}
}
