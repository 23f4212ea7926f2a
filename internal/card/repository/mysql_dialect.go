package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dario/cardvault/internal/database"
)

// MySQLDialect calls procedures positionally with CALL; the first result set the procedure
// selects is the cursor. Parameter names only fix the order of the arguments.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string {
	return "mysql"
}

func (d *MySQLDialect) Execute(
	ctx context.Context,
	q database.Querier,
	procedure string,
	params []Param,
) (CursorRef, error) {
	if err := validateCall(procedure, params); err != nil {
		return CursorRef{}, err
	}

	placeholders := make([]string, len(params))
	args := make([]any, len(params))
	for i, p := range params {
		placeholders[i] = "?"
		args[i] = p.Value
	}

	query := fmt.Sprintf("CALL %s(%s)", procedure, strings.Join(placeholders, ", "))
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return CursorRef{}, err
	}
	return CursorRef{Rows: rows}, nil
}

func (d *MySQLDialect) Open(ctx context.Context, q database.Querier, ref CursorRef) (*sql.Rows, error) {
	return ref.Rows, nil
}

func (d *MySQLDialect) HealthQuery() string {
	return "SELECT 1"
}
