package dbconn

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/johndauphine/job-archive/internal/config"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	Register(sqliteBackend{})
}

// sqliteBackend opens a local database file. Database holds the path.
type sqliteBackend struct{}

func (sqliteBackend) Name() string      { return "sqlite" }
func (sqliteBackend) Aliases() []string { return []string{"sqlite3"} }

func (sqliteBackend) DriverName(*config.DatabaseConfig) string { return "sqlite" }

// BuildDSN always sets _time_format=sqlite. Without it the driver stores
// time.Time values in Time.String form, which strftime cannot parse.
func (sqliteBackend) BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.Database == memoryDatabase {
		return cfg.Database + "?" + sqliteTimeFormat
	}
	return cfg.Database + "?" + sqliteTimeFormat + "&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

const (
	memoryDatabase   = ":memory:"
	sqliteTimeFormat = "_time_format=sqlite"
)
