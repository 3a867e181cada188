package dialect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/job-archive/internal/dbtest"
)

func march15() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }

func TestDetect(t *testing.T) {
	tests := []struct {
		identity string
		want     Kind
	}{
		{"postgres", KindPostgres},
		{"PostgreSQL 16.2", KindPostgres},
		{"pgx", KindPostgres},
		{"pg", KindPostgres},
		{"mysql", KindMySQL},
		{"MariaDB", KindMySQL},
		{"mariadb-10.11", KindMySQL},
		{"sqlserver", KindSQLServer},
		{"mssql", KindSQLServer},
		{"  AzureSQL", KindSQLServer},
		{"sqlite", KindDefault},
		{"sqlite3", KindDefault},
		{"oracle", KindDefault},
		{"", KindDefault},
		{"cockroachdb", KindDefault},
	}
	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.identity))
		})
	}
}

func TestNew_SelectsVariant(t *testing.T) {
	tests := []struct {
		identity string
		want     Strategy
	}{
		{"postgresql", &PostgresStrategy{}},
		{"mariadb", &MySQLStrategy{}},
		{"sqlserver", &SQLServerStrategy{}},
		{"sqlite", &DefaultStrategy{}},
		{"something-else", &DefaultStrategy{}},
	}
	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			s, err := New(dbtest.NewConn(tt.identity, "sqlite"))
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
			assert.Equal(t, Detect(tt.identity), s.Kind())
		})
	}
}

func TestNew_MissingConnector(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrMissingConnector)
}

func TestFormatter(t *testing.T) {
	assert.Equal(t, "CHR(65)", Formatter("postgres").FormatChar(65))
	assert.Equal(t, "CHAR(65)", Formatter("mysql").FormatChar(65))
	assert.Equal(t, "CHAR(65)", Formatter("mssql").FormatChar(65))
	assert.Equal(t, "CHAR(65)", Formatter("sqlite").FormatChar(65))
}

func TestPartitionName(t *testing.T) {
	ts := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	first := PartitionName("jobs_completed", ts)
	assert.Equal(t, "jobs_completed_2025_03", first)
	assert.Equal(t, first, PartitionName("jobs_completed", ts), "deterministic")
	assert.Equal(t, first, PartitionName(first, ts), "no double suffix")
	assert.Equal(t, first, PartitionName(first, ts.AddDate(0, 5, 0)), "existing suffix wins")

	// 2025-04-01 01:00 in UTC+3 is still March in UTC
	east := time.FixedZone("UTC+3", 3*60*60)
	assert.Equal(t, "jobs_failed_2025_03", PartitionName("jobs_failed", time.Date(2025, 4, 1, 1, 0, 0, 0, east)))
}

func TestYearMonth(t *testing.T) {
	m := MonthOf(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-03", m.String())
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), m.Start())
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), m.End())
	assert.True(t, m.Contains(time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.Contains(m.Start()))

	dec := MonthOf(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), dec.End())
	assert.Equal(t, -1, dec.Compare(m))
	assert.Equal(t, 1, m.Compare(dec))
	assert.Equal(t, 0, m.Compare(m))

	parsed, err := ParseYearMonth("2025-03")
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
	_, err = ParseYearMonth("2025-13")
	assert.Error(t, err)
}

func TestParsePartitionMonth(t *testing.T) {
	got, err := parsePartitionMonth("jobs_completed", "jobs_completed_2024_11")
	require.NoError(t, err)
	assert.Equal(t, YearMonth{Year: 2024, Month: time.November}, got)

	for _, bad := range []string{"jobs_completed_2024_13", "jobs_completed_old", "jobs_failed_2024_11", "jobs_completed_2024_1", "jobs_completed_2024_11_x"} {
		_, err := parsePartitionMonth("jobs_completed", bad)
		assert.Error(t, err, bad)
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		table  tokenTable
		format string
		want   string
	}{
		{"postgres date", postgresTokens, "%Y%m%d", "YYYYMMDD"},
		{"postgres minute vs month", postgresTokens, "%M-%m", "MI-MM"},
		{"postgres time", postgresTokens, "%H:%M:%S", "HH24:MI:SS"},
		{"sqlserver date", sqlServerTokens, "%Y-%m-%d", "yyyy-MM-dd"},
		{"sqlserver minute vs month", sqlServerTokens, "%m%M", "MMmm"},
		{"mysql minute", mysqlTokens, "%H:%M:%S", "%H:%i:%s"},
		{"strftime unchanged", strftimeTokens, "%Y-%m-%d %H:%M:%S", "%Y-%m-%d %H:%M:%S"},
		{"quotes stripped", postgresTokens, `%Y'); DROP TABLE x; --"`, "YYYY); DROP TABLE x; --"},
		{"backslash stripped", mysqlTokens, `%Y\\`, "%Y"},
		{"escaped quote stripped", mysqlTokens, `%Y\'%m`, "%Y%m"},
		{"unknown token kept", postgresTokens, "%Y %q", "YYYY %q"},
		{"trailing percent", sqlServerTokens, "%d%", "dd%"},
		{"empty", postgresTokens, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.table.translate(tt.format))
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		identity string
		want     string
	}{
		{"postgres", "TO_CHAR(created_at, 'YYYYMMDD')"},
		{"mysql", "DATE_FORMAT(created_at, '%Y%m%d')"},
		{"sqlserver", "FORMAT(created_at, 'yyyyMMdd')"},
		{"sqlite", "strftime('%Y%m%d', created_at)"},
	}
	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			assert.Equal(t, tt.want, Formatter(tt.identity).FormatDate("created_at", "%Y%m%d"))
		})
	}
}

func TestFormatDateBackslashCannotEscapeLiteral(t *testing.T) {
	for _, identity := range []string{"mysql", "postgres", "sqlserver", "sqlite"} {
		got := Formatter(identity).FormatDate("c", `%Y\`)
		assert.NotContains(t, got, `\`, identity)
	}
	assert.Equal(t, "DATE_FORMAT(c, '%Y')", Formatter("mysql").FormatDate("c", `%Y\`))
}

func TestPartitionCache(t *testing.T) {
	c := NewPartitionCache()
	assert.False(t, c.IsVerified("jobs_2025_03"))
	assert.True(t, c.MarkVerified("jobs_2025_03"))
	assert.False(t, c.MarkVerified("jobs_2025_03"))
	assert.True(t, c.IsVerified("jobs_2025_03"))
	c.MarkVerified("jobs_2025_04")
	assert.Equal(t, 2, c.Len())

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.IsVerified("jobs_2025_03"))
}
