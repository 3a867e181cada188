package dbconn

import (
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/johndauphine/job-archive/internal/config"
)

func init() {
	Register(postgresBackend{})
}

// postgresBackend opens PostgreSQL through pgx by default, or lib/pq
// when the config asks for driver: pq.
type postgresBackend struct{}

func (postgresBackend) Name() string      { return "postgres" }
func (postgresBackend) Aliases() []string { return []string{"postgresql", "pgx", "pg"} }

func (postgresBackend) DriverName(cfg *config.DatabaseConfig) string {
	if cfg.Driver == "pq" {
		return "postgres"
	}
	return "pgx"
}

func (postgresBackend) BuildDSN(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User == "" {
		u.User = nil
	}

	params := url.Values{}
	if cfg.SSLMode != "" {
		params.Set("sslmode", cfg.SSLMode)
	} else {
		params.Set("sslmode", "prefer")
	}
	u.RawQuery = params.Encode()
	return u.String()
}
