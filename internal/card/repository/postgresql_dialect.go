package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/dario/cardvault/internal/database"
)

// PostgreSQLDialect calls functions that return a refcursor using named notation:
//
//	SELECT proc(p_a => $1, p_b => $2)
//
// The scanned value is the portal name, read back with FETCH ALL in the same transaction.
type PostgreSQLDialect struct{}

func (d *PostgreSQLDialect) Name() string {
	return "postgres"
}

func (d *PostgreSQLDialect) Execute(
	ctx context.Context,
	q database.Querier,
	procedure string,
	params []Param,
) (CursorRef, error) {
	if err := validateCall(procedure, params); err != nil {
		return CursorRef{}, err
	}

	query, args := d.buildCall(procedure, params)

	var portal sql.NullString
	if err := q.QueryRowContext(ctx, query, args...).Scan(&portal); err != nil {
		return CursorRef{}, err
	}
	return CursorRef{Name: portal.String}, nil
}

func (d *PostgreSQLDialect) Open(ctx context.Context, q database.Querier, ref CursorRef) (*sql.Rows, error) {
	if ref.Name == "" {
		return nil, nil
	}
	return q.QueryContext(ctx, "FETCH ALL FROM "+pq.QuoteIdentifier(ref.Name))
}

func (d *PostgreSQLDialect) HealthQuery() string {
	return "SELECT 1"
}

func (d *PostgreSQLDialect) buildCall(procedure string, params []Param) (string, []any) {
	bindings := make([]string, len(params))
	args := make([]any, len(params))
	for i, p := range params {
		bindings[i] = fmt.Sprintf("%s => $%d", p.Name, i+1)
		args[i] = p.Value
	}
	return fmt.Sprintf("SELECT %s(%s)", procedure, strings.Join(bindings, ", ")), args
}
