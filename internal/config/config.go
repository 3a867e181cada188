package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when a setting is omitted.
const (
	DefaultRetryCount      = 3
	DefaultTimeout         = 30 * time.Minute
	DefaultMaxOpenConns    = 10
	DefaultConnectAttempts = 3
	DefaultConnectBackoff  = 500 * time.Millisecond
)

// expandTilde expands ~ or ~/ at the start of a path to the user's home directory
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Config holds all configuration for the job archive
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds connection settings. Either DSN or the discrete
// host fields are used; DSN wins when both are set.
type DatabaseConfig struct {
	Type            string        `yaml:"type"`   // postgres, mysql, sqlserver, sqlite (default: sqlite)
	Driver          string        `yaml:"driver"` // postgres only: pgx (default) or pq
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"` // file path for sqlite
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`          // PostgreSQL: disable, require, verify-ca, verify-full (default: require)
	Encrypt         string        `yaml:"encrypt"`           // SQL Server: disable, false, true (default: true)
	TrustServerCert bool          `yaml:"trust_server_cert"` // SQL Server: trust server certificate (default: false)
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff"`
}

// JobsConfig holds job feature defaults.
type JobsConfig struct {
	RetryCount int           `yaml:"retry_count"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoggingConfig selects log verbosity and line format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // text or json (default: text)
}

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	SuppressWarnings bool
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions reads configuration from a YAML file with options.
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	path = expandTilde(path)

	// Check file permissions before reading (warns if insecure)
	if warning := checkFilePermissions(path); warning != "" && !opts.SuppressWarnings {
		fmt.Fprint(os.Stderr, warning)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return LoadBytes(data)
}

// LoadBytes reads configuration from YAML bytes.
func LoadBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given: a local
// SQLite database named jobs.db.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	db := &c.Database
	db.Type = strings.ToLower(strings.TrimSpace(db.Type))
	if db.Type == "" {
		db.Type = "sqlite"
	}
	switch db.Type {
	case "postgresql":
		db.Type = "postgres"
	case "mariadb":
		db.Type = "mysql"
	case "mssql":
		db.Type = "sqlserver"
	}
	if db.Type == "postgres" && db.Driver == "" {
		db.Driver = "pgx"
	}
	if db.Port == 0 {
		switch db.Type {
		case "postgres":
			db.Port = 5432
		case "mysql":
			db.Port = 3306
		case "sqlserver":
			db.Port = 1433
		}
	}
	if db.Type == "sqlite" {
		if db.Database == "" {
			db.Database = "jobs.db"
		} else {
			db.Database = expandTilde(db.Database)
		}
	}
	if db.SSLMode == "" {
		db.SSLMode = "require" // Secure default for PostgreSQL
	}
	if db.Encrypt == "" {
		db.Encrypt = "true" // Secure default for SQL Server
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = DefaultMaxOpenConns
	}
	if db.ConnectAttempts == 0 {
		db.ConnectAttempts = DefaultConnectAttempts
	}
	if db.ConnectBackoff == 0 {
		db.ConnectBackoff = DefaultConnectBackoff
	}

	if c.Jobs.RetryCount == 0 {
		c.Jobs.RetryCount = DefaultRetryCount
	}
	if c.Jobs.Timeout == 0 {
		c.Jobs.Timeout = DefaultTimeout
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	db := c.Database
	switch db.Type {
	case "postgres", "mysql", "sqlserver", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q (want postgres, mysql, sqlserver or sqlite)", db.Type)
	}
	if db.Type == "postgres" && db.Driver != "pgx" && db.Driver != "pq" {
		return fmt.Errorf("database.driver must be 'pgx' or 'pq', got '%s'", db.Driver)
	}
	if db.Type != "sqlite" && db.DSN == "" {
		if db.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if db.Database == "" {
			return fmt.Errorf("database.database is required")
		}
	}
	if db.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must not be negative")
	}
	if db.ConnectAttempts < 0 {
		return fmt.Errorf("database.connect_attempts must not be negative")
	}
	if c.Jobs.RetryCount < 0 {
		return fmt.Errorf("jobs.retry_count must not be negative")
	}
	if c.Jobs.Timeout < 0 {
		return fmt.Errorf("jobs.timeout must not be negative")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", c.Logging.Format)
	}
	return nil
}

// Sanitized returns a copy of the config with sensitive fields redacted
func (c *Config) Sanitized() *Config {
	sanitized := *c // shallow copy

	if sanitized.Database.Password != "" {
		sanitized.Database.Password = "[REDACTED]"
	}
	if sanitized.Database.DSN != "" {
		sanitized.Database.DSN = "[REDACTED]"
	}

	return &sanitized
}
