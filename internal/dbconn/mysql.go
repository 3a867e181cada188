package dbconn

import (
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/johndauphine/job-archive/internal/config"
)

func init() {
	Register(mysqlBackend{})
}

// mysqlBackend covers MySQL and MariaDB.
type mysqlBackend struct{}

func (mysqlBackend) Name() string      { return "mysql" }
func (mysqlBackend) Aliases() []string { return []string{"mariadb"} }

func (mysqlBackend) DriverName(*config.DatabaseConfig) string { return "mysql" }

// BuildDSN always sets parseTime so DATETIME columns scan into time.Time.
func (mysqlBackend) BuildDSN(cfg *config.DatabaseConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	switch cfg.SSLMode {
	case "disable":
		c.TLSConfig = "false"
	case "verify-ca", "verify-full":
		c.TLSConfig = "true"
	default:
		c.TLSConfig = "preferred"
	}
	return c.FormatDSN()
}
