package dialect

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
)

const (
	pgDuplicateTable  = "42P07"
	pgUniqueViolation = "23505" // pg_type race between concurrent CREATE TABLE IF NOT EXISTS
	mysqlTableExists  = 1050
	mssqlObjectExists = 2714
)

// isAlreadyExists reports whether err means a CREATE lost a race against a
// concurrent identical CREATE. Only call it for idempotent create statements.
func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateTable || pgErr.Code == pgUniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgDuplicateTable || pqErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlTableExists
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlObjectExists
	}

	return false
}
