// Package dialect implements the per-backend storage strategies for the job
// tables: schema creation and teardown, month-scoped connections, partition
// naming and enumeration, and portable date/char formatting SQL.
//
// Postgres gets real declarative range partitioning of the archive tables by
// calendar month. SQLite, MySQL/MariaDB and SQL Server keep a single archive
// table per kind; on those backends partition names are informational only.
package dialect

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrMissingConnector is returned when a strategy is constructed without a
// connection factory.
var ErrMissingConnector = errors.New("missing required connector")

// Connector is the connection factory collaborator. It owns pooling and
// reports the identity string of the backend it is connected to.
type Connector interface {
	DB() *sqlx.DB
	Identity() string
}

// Kind identifies a strategy variant.
type Kind int

const (
	// KindDefault covers SQLite and any unrecognised engine.
	KindDefault Kind = iota
	KindMySQL
	KindSQLServer
	KindPostgres
)

func (k Kind) String() string {
	switch k {
	case KindMySQL:
		return "mysql"
	case KindSQLServer:
		return "sqlserver"
	case KindPostgres:
		return "postgres"
	default:
		return "default"
	}
}

// SQLFormatter builds portable date and character expressions.
type SQLFormatter interface {
	// FormatDate renders column formatted with a strftime-style format
	// limited to %Y %m %d %H %M %S. Quote characters in format are dropped.
	FormatDate(column, format string) string
	// FormatChar renders the character with the given code point.
	FormatChar(code int) string
}

// Strategy is the dialect-specific storage contract used by the job engine.
type Strategy interface {
	SQLFormatter

	Kind() Kind

	// InitSchema creates the live and auxiliary tables, the archive tables,
	// and ensures the archive partition for the current UTC month.
	InitSchema(ctx context.Context) error

	// DropTables drops the live and auxiliary tables plus the archive
	// tables/partition for the month of asOf (zero means now).
	DropTables(ctx context.Context, asOf time.Time) error

	// OpenDB returns the ordinary connection.
	OpenDB() *sqlx.DB

	// OpenMonthDB returns a connection that is safe for writing archive rows
	// created at created, ensuring that month's partition exists first.
	OpenMonthDB(ctx context.Context, created time.Time) (*sqlx.DB, error)

	// PartitionName returns base suffixed with _YYYY_MM for t's UTC month.
	PartitionName(base string, t time.Time) string

	// ListPartitionMonths returns the months that have archive partitions,
	// newest first. Backends without partitioning return an empty slice.
	ListPartitionMonths(ctx context.Context, db *sqlx.DB) ([]YearMonth, error)
}

// Option configures a strategy.
type Option func(*options)

type options struct {
	now   func() time.Time
	cache *PartitionCache
}

// WithClock overrides the clock used to pick the "current" month.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPartitionCache shares an existing verified-partition cache with the
// Postgres strategy. Other strategies ignore it.
func WithPartitionCache(c *PartitionCache) Option {
	return func(o *options) { o.cache = c }
}

// identity prefixes in precedence order; first match wins.
var identityPrefixes = []struct {
	kind     Kind
	prefixes []string
}{
	{KindPostgres, []string{"postgres", "pgx", "pg"}},
	{KindMySQL, []string{"mysql", "mariadb"}},
	{KindSQLServer, []string{"sqlserver", "mssql", "azuresql"}},
}

// Detect maps a backend identity string to a strategy kind. It never fails:
// anything unrecognised is KindDefault.
func Detect(identity string) Kind {
	id := strings.ToLower(strings.TrimSpace(identity))
	for _, entry := range identityPrefixes {
		for _, p := range entry.prefixes {
			if strings.HasPrefix(id, p) {
				return entry.kind
			}
		}
	}
	return KindDefault
}

// New selects and builds the strategy matching conn's identity.
func New(conn Connector, opts ...Option) (Strategy, error) {
	if conn == nil || conn.DB() == nil {
		return nil, ErrMissingConnector
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch Detect(conn.Identity()) {
	case KindPostgres:
		return newPostgres(conn, o), nil
	case KindMySQL:
		return newMySQL(conn, o), nil
	case KindSQLServer:
		return newSQLServer(conn, o), nil
	default:
		return newDefault(conn, o), nil
	}
}

// Formatter returns the SQL formatter for identity without a connection,
// for tools that only generate SQL text.
func Formatter(identity string) SQLFormatter {
	switch Detect(identity) {
	case KindPostgres:
		return &PostgresStrategy{}
	case KindMySQL:
		return &MySQLStrategy{}
	case KindSQLServer:
		return &SQLServerStrategy{}
	default:
		return &DefaultStrategy{}
	}
}
