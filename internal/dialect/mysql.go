package dialect

import (
	"fmt"
	"strings"

	"github.com/johndauphine/job-archive/internal/schema"
)

// MySQLStrategy serves MySQL and MariaDB.
type MySQLStrategy struct {
	flat
}

func newMySQL(conn Connector, o options) *MySQLStrategy {
	s := &MySQLStrategy{}
	s.flat = flat{base{conn: conn, r: s, now: o.now, kind: KindMySQL}}
	return s
}

func (s *MySQLStrategy) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (s *MySQLStrategy) ColumnType(t schema.ColumnType) string {
	switch t {
	case schema.TypeID:
		return "VARCHAR(36)"
	case schema.TypeName:
		return "VARCHAR(255)"
	case schema.TypeText:
		return "LONGTEXT"
	case schema.TypeInt:
		return "INT"
	case schema.TypeTimestamp:
		return "DATETIME(6)"
	case schema.TypeBool:
		return "TINYINT(1)"
	default:
		return "LONGTEXT"
	}
}

func (s *MySQLStrategy) createTableSQL(t schema.Table) string {
	return "CREATE TABLE IF NOT EXISTS " + s.QuoteIdentifier(t.Name) + " " + t.Body(s) +
		" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
}

func (s *MySQLStrategy) dropTableSQL(name string) string {
	return "DROP TABLE IF EXISTS " + s.QuoteIdentifier(name)
}

// FormatDate renders DATE_FORMAT(column, '<format>').
func (s *MySQLStrategy) FormatDate(column, format string) string {
	return fmt.Sprintf("DATE_FORMAT(%s, '%s')", column, mysqlTokens.translate(format))
}

func (s *MySQLStrategy) FormatChar(code int) string {
	return fmt.Sprintf("CHAR(%d)", code)
}
