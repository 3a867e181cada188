package dialect

import "strings"

// tokenTable maps the letter of a canonical %-token to its native spelling.
type tokenTable map[byte]string

var (
	// SQLite strftime already speaks the canonical vocabulary.
	strftimeTokens = tokenTable{'Y': "%Y", 'm': "%m", 'd': "%d", 'H': "%H", 'M': "%M", 'S': "%S"}

	// MySQL DATE_FORMAT uses %i for minutes and %M for the month name.
	mysqlTokens = tokenTable{'Y': "%Y", 'm': "%m", 'd': "%d", 'H': "%H", 'M': "%i", 'S': "%s"}

	// SQL Server FORMAT takes .NET custom date format strings.
	sqlServerTokens = tokenTable{'Y': "yyyy", 'm': "MM", 'd': "dd", 'H': "HH", 'M': "mm", 'S': "ss"}

	postgresTokens = tokenTable{'Y': "YYYY", 'm': "MM", 'd': "DD", 'H': "HH24", 'M': "MI", 'S': "SS"}
)

// MySQL reads backslash as an escape inside string literals, so a trailing
// one would swallow the closing quote.
var quoteStripper = strings.NewReplacer("'", "", `"`, "", `\`, "")

// translate rewrites format in a single left-to-right pass. Quote characters
// and backslashes are removed first so the result can be embedded in a SQL
// string literal.
// Unknown tokens and literal text are copied through.
func (tt tokenTable) translate(format string) string {
	format = quoteStripper.Replace(format)

	var b strings.Builder
	b.Grow(len(format) * 2)
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '%' && i+1 < len(format) {
			if native, ok := tt[format[i+1]]; ok {
				b.WriteString(native)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
