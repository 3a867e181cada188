package dialect

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/job-archive/internal/dbtest"
	"github.com/johndauphine/job-archive/internal/schema"
)

func newRecordedPostgres(t *testing.T) (*PostgresStrategy, *dbtest.Conn) {
	t.Helper()
	conn := dbtest.NewConn("postgres", "pgx")
	s, err := New(conn, WithClock(march15))
	require.NoError(t, err)
	pg, ok := s.(*PostgresStrategy)
	require.True(t, ok)
	return pg, conn
}

func TestBuildParentDDL(t *testing.T) {
	pg, _ := newRecordedPostgres(t)
	ddl := pg.BuildParentDDL(schema.JobsCompleted, "created_at")

	assert.True(t, strings.HasPrefix(ddl, `CREATE TABLE IF NOT EXISTS "jobs_completed" (`))
	assert.Contains(t, ddl, `PRIMARY KEY ("id", "created_at")`)
	assert.NotContains(t, ddl, `PRIMARY KEY ("id")`)
	assert.True(t, strings.HasSuffix(ddl, `PARTITION BY RANGE ("created_at")`))
	assert.Contains(t, ddl, `"created_at" TIMESTAMPTZ NOT NULL`)
}

func TestBuildChildDDL(t *testing.T) {
	pg, _ := newRecordedPostgres(t)
	ddl := pg.BuildChildDDL(schema.JobsFailed, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))

	want := `CREATE TABLE IF NOT EXISTS "jobs_failed_2025_03" PARTITION OF "jobs_failed" ` +
		`FOR VALUES FROM ('2025-03-01 00:00:00+00') TO ('2025-04-01 00:00:00+00')`
	assert.Equal(t, want, ddl)

	dec := pg.BuildChildDDL(schema.JobsFailed, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Contains(t, dec, `"jobs_failed_2024_12"`)
	assert.Contains(t, dec, `TO ('2025-01-01 00:00:00+00')`)
}

func TestPostgresInitSchema(t *testing.T) {
	pg, conn := newRecordedPostgres(t)
	require.NoError(t, pg.InitSchema(context.Background()))

	for _, tbl := range schema.LiveTables() {
		assert.Equal(t, 1, conn.CountExecs(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (`, tbl.Name)), tbl.Name)
	}
	assert.Equal(t, 2, conn.CountExecs("PARTITION BY RANGE"))
	assert.Equal(t, 2, conn.CountExecs("PARTITION OF"))
	assert.Equal(t, 1, conn.CountExecs(`"jobs_completed_2025_03" PARTITION OF`))
	assert.Equal(t, 1, conn.CountExecs(`"jobs_failed_2025_03" PARTITION OF`))
	assert.True(t, pg.Cache().IsVerified("jobs_2025_03"))
}

func TestOpenMonthDB_Idempotent(t *testing.T) {
	pg, conn := newRecordedPostgres(t)
	ctx := context.Background()
	created := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		db, err := pg.OpenMonthDB(ctx, created.Add(time.Duration(i)*24*time.Hour))
		require.NoError(t, err)
		assert.Same(t, conn.DB(), db)
	}
	assert.Equal(t, 2, conn.CountExecs("PARTITION OF"), "one child per archive kind")
	assert.Equal(t, 1, pg.Cache().Len())
}

func TestOpenMonthDB_Concurrent(t *testing.T) {
	pg, conn := newRecordedPostgres(t)
	created := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pg.OpenMonthDB(context.Background(), created)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, pg.Cache().IsVerified("jobs_2025_06"))
	n := conn.CountExecs("PARTITION OF")
	assert.GreaterOrEqual(t, n, 2)
	assert.LessOrEqual(t, n, 2*workers)
}

func TestOpenMonthDB_FailureIsNotCached(t *testing.T) {
	pg, conn := newRecordedPostgres(t)
	ctx := context.Background()
	created := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	denied := errors.New("permission denied for schema public")

	conn.FailExec(`"jobs_failed_2025_07"`, denied)
	_, err := pg.OpenMonthDB(ctx, created)
	require.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), "jobs_failed_2025_07")
	assert.False(t, pg.Cache().IsVerified("jobs_2025_07"))

	conn.ClearFailures()
	_, err = pg.OpenMonthDB(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 2, conn.CountExecs(`"jobs_completed_2025_07" PARTITION OF`), "creation retried on next call")
	assert.True(t, pg.Cache().IsVerified("jobs_2025_07"))
}

func TestOpenMonthDB_ConcurrentCreateRace(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"pgx duplicate table", &pgconn.PgError{Code: "42P07", Message: "relation already exists"}},
		{"pgx catalog unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}},
		{"pq duplicate table", &pq.Error{Code: "42P07", Message: "relation already exists"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg, conn := newRecordedPostgres(t)
			conn.FailExec("PARTITION OF", tt.err)
			_, err := pg.OpenMonthDB(context.Background(), march15())
			require.NoError(t, err)
			assert.True(t, pg.Cache().IsVerified("jobs_2025_03"))
		})
	}

	t.Run("overlap is not tolerated", func(t *testing.T) {
		pg, conn := newRecordedPostgres(t)
		conn.FailExec("PARTITION OF", &pgconn.PgError{Code: "42P17", Message: "partition would overlap"})
		_, err := pg.OpenMonthDB(context.Background(), march15())
		require.Error(t, err)
		assert.False(t, pg.Cache().IsVerified("jobs_2025_03"))
	})
}

func TestPostgresDropTables_ResetsCache(t *testing.T) {
	pg, conn := newRecordedPostgres(t)
	ctx := context.Background()
	april := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)

	_, err := pg.OpenMonthDB(ctx, april)
	require.NoError(t, err)
	_, err = pg.OpenMonthDB(ctx, march15())
	require.NoError(t, err)
	require.Equal(t, 2, pg.Cache().Len())

	require.NoError(t, pg.DropTables(ctx, time.Time{}))
	assert.Equal(t, 0, pg.Cache().Len())
	assert.Equal(t, 1, conn.CountExecs(`DROP TABLE IF EXISTS "jobs_completed_2025_03" CASCADE`))
	assert.Equal(t, 1, conn.CountExecs(`DROP TABLE IF EXISTS "jobs_completed" CASCADE`))
	assert.Equal(t, 1, conn.CountExecs(`DROP TABLE IF EXISTS "jobs" CASCADE`))

	conn.Reset()
	_, err = pg.OpenMonthDB(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, 2, conn.CountExecs("PARTITION OF"), "creation DDL re-issued after reset")
}

func TestPostgresDropTables_FailureStillResetsCache(t *testing.T) {
	pg, conn := newRecordedPostgres(t)
	ctx := context.Background()
	_, err := pg.OpenMonthDB(ctx, march15())
	require.NoError(t, err)

	conn.FailExec("DROP TABLE", errors.New("must be owner of table"))
	err = pg.DropTables(ctx, march15())
	require.Error(t, err)
	assert.Equal(t, 0, pg.Cache().Len())
}

func TestListPartitionMonths(t *testing.T) {
	pg, conn := newRecordedPostgres(t)
	conn.SetRows("pg_inherits", dbtest.Rows{
		Columns: []string{"parent", "child"},
		Values: [][]driver.Value{
			{"jobs_completed", "jobs_completed_2024_12"},
			{"jobs_completed", "jobs_completed_2025_03"},
			{"jobs_completed", "jobs_completed_2025_01"},
			{"jobs_completed", "jobs_completed_legacy"},
			{"jobs_completed", "jobs_completed_2025_13"},
			{"jobs_failed", "jobs_failed_2025_03"},
			{"jobs_failed", "jobs_failed_2023_07"},
			{"jobs_failed", "jobs_completed_2022_01"},
		},
	})

	months, err := pg.ListPartitionMonths(context.Background(), conn.DB())
	require.NoError(t, err)
	assert.Equal(t, []YearMonth{
		{2025, time.March},
		{2025, time.January},
		{2024, time.December},
		{2023, time.July},
	}, months)

	queries := conn.Queries()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "IN ($1, $2)")
}

func TestListPartitionMonths_Empty(t *testing.T) {
	pg, _ := newRecordedPostgres(t)
	months, err := pg.ListPartitionMonths(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, months)
}

func TestPostgresFormatting(t *testing.T) {
	pg, _ := newRecordedPostgres(t)
	assert.Equal(t, "TO_CHAR(created_at, 'YYYY-MM-DD HH24:MI:SS')", pg.FormatDate("created_at", "%Y-%m-%d %H:%M:%S"))
	assert.Equal(t, "CHR(10)", pg.FormatChar(10))
}
