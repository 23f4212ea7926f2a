package repository

import (
	"errors"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

var (
	// PostgreSQL: undefined_function (no overload matches the named arguments) and
	// undefined_parameter.
	postgresBindingCodes = map[pq.ErrorCode]struct{}{
		"42883": {},
		"42P02": {},
	}

	// MySQL: ER_SP_WRONG_NO_OF_ARGS.
	mysqlBindingNumbers = map[uint16]struct{}{
		1318: {},
	}

	// Oracle: PL/SQL compilation error (wrong number or types of arguments) and
	// ORA-01036 illegal variable name/number. Drivers only expose these in the message.
	oracleBindingPattern = regexp.MustCompile(`\bORA-0*(6550|1036)\b`)
)

// IsBindingError reports whether err means the procedure rejected the parameter names or
// count it was called with, as opposed to an operational failure.
func IsBindingError(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := postgresBindingCodes[pqErr.Code]
		return ok
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		_, ok := mysqlBindingNumbers[mysqlErr.Number]
		return ok
	}

	return oracleBindingPattern.MatchString(err.Error())
}
