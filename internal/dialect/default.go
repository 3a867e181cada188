package dialect

import (
	"fmt"
	"strings"

	"github.com/johndauphine/job-archive/internal/schema"
)

// DefaultStrategy serves SQLite and any backend that is not recognised.
type DefaultStrategy struct {
	flat
}

func newDefault(conn Connector, o options) *DefaultStrategy {
	s := &DefaultStrategy{}
	s.flat = flat{base{conn: conn, r: s, now: o.now, kind: KindDefault}}
	return s
}

func (s *DefaultStrategy) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *DefaultStrategy) ColumnType(t schema.ColumnType) string {
	switch t {
	case schema.TypeInt, schema.TypeBool:
		return "INTEGER"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (s *DefaultStrategy) createTableSQL(t schema.Table) string {
	return "CREATE TABLE IF NOT EXISTS " + s.QuoteIdentifier(t.Name) + " " + t.Body(s)
}

func (s *DefaultStrategy) dropTableSQL(name string) string {
	return "DROP TABLE IF EXISTS " + s.QuoteIdentifier(name)
}

// FormatDate renders strftime('<format>', column).
func (s *DefaultStrategy) FormatDate(column, format string) string {
	return fmt.Sprintf("strftime('%s', %s)", strftimeTokens.translate(format), column)
}

func (s *DefaultStrategy) FormatChar(code int) string {
	return fmt.Sprintf("CHAR(%d)", code)
}
