// Package dbconn opens the archive database described by the config and
// hands out a connection that the dialect package can select a strategy for.
package dbconn

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/jmoiron/sqlx"

	"github.com/johndauphine/job-archive/internal/config"
	"github.com/johndauphine/job-archive/internal/logging"
	"github.com/johndauphine/job-archive/internal/stats"
)

// Conn is an open database handle plus the engine name it was opened for.
type Conn struct {
	db       *sqlx.DB
	identity string
}

// DB returns the shared handle, or nil on a nil Conn.
func (c *Conn) DB() *sqlx.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Identity returns the canonical backend name (postgres, mysql, sqlserver, sqlite).
func (c *Conn) Identity() string { return c.identity }

// PoolStats reports current pool usage.
func (c *Conn) PoolStats() stats.PoolStats {
	return stats.FromDB(c.identity, c.db.Stats())
}

// Close closes all pooled connections.
func (c *Conn) Close() error { return c.db.Close() }

// Open connects to the configured database. The first ping is retried
// with exponential backoff up to cfg.ConnectAttempts times.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Conn, error) {
	b, err := Lookup(cfg.Type)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dsn == "" {
		dsn = b.BuildDSN(&cfg)
	}

	db, err := sqlx.Open(b.DriverName(&cfg), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", b.Name(), err)
	}

	maxConns := cfg.MaxOpenConns
	if b.Name() == "sqlite" && cfg.Database == memoryDatabase {
		// every connection to :memory: is a separate database
		maxConns = 1
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(max(1, maxConns/4))
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(ctx, db, b.Name(), cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", b.Name(), err)
	}

	logging.Info("Connected to %s database %s", b.Name(), target(cfg))
	return &Conn{db: db, identity: b.Name()}, nil
}

func ping(ctx context.Context, db *sqlx.DB, name string, cfg config.DatabaseConfig) error {
	attempts := max(cfg.ConnectAttempts, 1)
	backoff := cfg.ConnectBackoff
	if backoff <= 0 {
		backoff = config.DefaultConnectBackoff
	}

	attempt := 0
	rptr := repeater.New(&strategy.Backoff{Repeats: attempts, Duration: backoff, Factor: 2, Jitter: true})
	return rptr.Do(ctx, func() error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logging.Warn("Ping %s failed (attempt %d/%d): %v", name, attempt, attempts, err)
			return err
		}
		return nil
	})
}

// target describes where cfg points without credentials.
func target(cfg config.DatabaseConfig) string {
	switch {
	case cfg.DSN != "":
		return "(dsn)"
	case cfg.Type == "sqlite":
		return cfg.Database
	default:
		return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	}
}
