// Package repository talks to the backing store of the vault. Cards are written and read
// exclusively through stored procedures whose output is a server-side cursor; the Gateway
// hides how each database exposes that cursor.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/dario/cardvault/internal/database"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#.]*$`)

// Param is one named input of a procedure call.
type Param struct {
	Name  string
	Value any
}

// CursorRef points at the output cursor of an executed procedure. Dialects that return the
// cursor by name set Name; dialects that stream the result set directly set Rows.
type CursorRef struct {
	Name string
	Rows *sql.Rows
}

// Dialect executes procedures and opens their output cursor for one database family.
type Dialect interface {
	// Name returns the database/sql driver name.
	Name() string

	// Execute calls procedure with params inside q.
	Execute(ctx context.Context, q database.Querier, procedure string, params []Param) (CursorRef, error)

	// Open turns ref into a readable result set. A nil result means the procedure
	// produced no cursor.
	Open(ctx context.Context, q database.Querier, ref CursorRef) (*sql.Rows, error)

	// HealthQuery is the constant statement used to probe the query target.
	HealthQuery() string
}

// NewDialect returns the dialect registered for driver.
func NewDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return &PostgreSQLDialect{}, nil
	case "mysql":
		return &MySQLDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func validateCall(procedure string, params []Param) error {
	if !identifierPattern.MatchString(procedure) {
		return fmt.Errorf("invalid procedure name %q", procedure)
	}
	for _, p := range params {
		if !identifierPattern.MatchString(p.Name) {
			return fmt.Errorf("invalid parameter name %q", p.Name)
		}
	}
	return nil
}
