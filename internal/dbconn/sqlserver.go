package dbconn

import (
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/johndauphine/job-archive/internal/config"
)

func init() {
	Register(sqlServerBackend{})
}

type sqlServerBackend struct{}

func (sqlServerBackend) Name() string      { return "sqlserver" }
func (sqlServerBackend) Aliases() []string { return []string{"mssql", "sql-server", "azuresql"} }

func (sqlServerBackend) DriverName(*config.DatabaseConfig) string { return "sqlserver" }

func (sqlServerBackend) BuildDSN(cfg *config.DatabaseConfig) string {
	dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, url.QueryEscape(cfg.Database))

	if cfg.Encrypt != "" {
		dsn += "&encrypt=" + url.QueryEscape(cfg.Encrypt)
	}
	if cfg.TrustServerCert {
		dsn += "&TrustServerCertificate=true"
	}
	return dsn
}
