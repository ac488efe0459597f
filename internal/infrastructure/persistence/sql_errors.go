package persistence

import (
	stderrors "errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL/TiDB server error numbers the repositories react to
const (
	mysqlErrDupEntry        = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// mysqlErrorNumber returns the server error number carried by err, 0 when
// err did not come from the MySQL driver
func mysqlErrorNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if stderrors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

// isUniqueViolation reports a duplicate key. MySQL errors are matched by
// number; SQLite reports "UNIQUE constraint failed".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if n := mysqlErrorNumber(err); n != 0 {
		return n == mysqlErrDupEntry
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
