package dialect

import (
	"fmt"
	"strings"

	"github.com/johndauphine/job-archive/internal/schema"
)

// SQLServerStrategy serves Microsoft SQL Server and Azure SQL.
type SQLServerStrategy struct {
	flat
}

func newSQLServer(conn Connector, o options) *SQLServerStrategy {
	s := &SQLServerStrategy{}
	s.flat = flat{base{conn: conn, r: s, now: o.now, kind: KindSQLServer}}
	return s
}

func (s *SQLServerStrategy) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (s *SQLServerStrategy) ColumnType(t schema.ColumnType) string {
	switch t {
	case schema.TypeID:
		return "NVARCHAR(36)"
	case schema.TypeName:
		return "NVARCHAR(255)"
	case schema.TypeText:
		return "NVARCHAR(MAX)"
	case schema.TypeInt:
		return "INT"
	case schema.TypeTimestamp:
		return "DATETIME2"
	case schema.TypeBool:
		return "BIT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// createTableSQL guards with OBJECT_ID since T-SQL has no CREATE TABLE IF NOT EXISTS.
func (s *SQLServerStrategy) createTableSQL(t schema.Table) string {
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s %s",
		strings.ReplaceAll(t.Name, "'", "''"), s.QuoteIdentifier(t.Name), t.Body(s))
}

func (s *SQLServerStrategy) dropTableSQL(name string) string {
	return "DROP TABLE IF EXISTS " + s.QuoteIdentifier(name)
}

// FormatDate renders FORMAT(column, '<format>') with a .NET format string.
func (s *SQLServerStrategy) FormatDate(column, format string) string {
	return fmt.Sprintf("FORMAT(%s, '%s')", column, sqlServerTokens.translate(format))
}

func (s *SQLServerStrategy) FormatChar(code int) string {
	return fmt.Sprintf("CHAR(%d)", code)
}
