package stats

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromDB(t *testing.T) {
	s := FromDB("postgres", sql.DBStats{
		MaxOpenConnections: 10,
		InUse:              3,
		Idle:               2,
		WaitCount:          4,
		WaitDuration:       10 * time.Millisecond,
	})
	assert.Equal(t, PoolStats{Backend: "postgres", MaxConns: 10, ActiveConns: 3, IdleConns: 2, WaitCount: 4, WaitTimeMs: 10}, s)
	assert.Equal(t, "postgres: 3/10 active, 2 idle, 4 waits (2.5ms avg)", s.String())
}

func TestStringUnlimitedNoWaits(t *testing.T) {
	s := PoolStats{Backend: "sqlite", IdleConns: 1}
	assert.Equal(t, "sqlite: 0/unlimited active, 1 idle, 0 waits (0.0ms avg)", s.String())
}
