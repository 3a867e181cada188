// Package stats summarizes database pool usage for logging.
package stats

import (
	"database/sql"
	"fmt"
)

// PoolStats is a driver-independent view of a connection pool.
type PoolStats struct {
	Backend     string // canonical backend name
	MaxConns    int    // 0 means unlimited
	ActiveConns int
	IdleConns   int
	WaitCount   int64 // times a caller waited for a free connection
	WaitTimeMs  int64
}

// FromDB converts database/sql pool counters.
func FromDB(backend string, s sql.DBStats) PoolStats {
	return PoolStats{
		Backend:     backend,
		MaxConns:    s.MaxOpenConnections,
		ActiveConns: s.InUse,
		IdleConns:   s.Idle,
		WaitCount:   s.WaitCount,
		WaitTimeMs:  s.WaitDuration.Milliseconds(),
	}
}

// String returns a formatted string for logging pool stats.
func (s PoolStats) String() string {
	limit := "unlimited"
	if s.MaxConns > 0 {
		limit = fmt.Sprint(s.MaxConns)
	}
	return fmt.Sprintf("%s: %d/%s active, %d idle, %d waits (%.1fms avg)",
		s.Backend, s.ActiveConns, limit, s.IdleConns,
		s.WaitCount, float64(s.WaitTimeMs)/float64(max(s.WaitCount, 1)))
}
