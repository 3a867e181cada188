package dialect

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/johndauphine/job-archive/internal/logging"
	"github.com/johndauphine/job-archive/internal/schema"
)

// partitionCatalogQuery lists the child partitions of the given parents.
const partitionCatalogQuery = `
	SELECT parent.relname AS parent, child.relname AS child
	FROM pg_catalog.pg_inherits inh
	JOIN pg_catalog.pg_class parent ON parent.oid = inh.inhparent
	JOIN pg_catalog.pg_class child ON child.oid = inh.inhrelid
	WHERE parent.relname IN (?)
	ORDER BY child.relname`

// PostgresStrategy range-partitions the archive tables by calendar month of
// their date column. Child partitions are created lazily by OpenMonthDB.
type PostgresStrategy struct {
	base
	cache *PartitionCache
}

func newPostgres(conn Connector, o options) *PostgresStrategy {
	cache := o.cache
	if cache == nil {
		cache = NewPartitionCache()
	}
	s := &PostgresStrategy{cache: cache}
	s.base = base{conn: conn, r: s, now: o.now, kind: KindPostgres}
	return s
}

// Cache returns the verified-partition cache owned by this strategy.
func (s *PostgresStrategy) Cache() *PartitionCache { return s.cache }

func (s *PostgresStrategy) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (s *PostgresStrategy) ColumnType(t schema.ColumnType) string {
	switch t {
	case schema.TypeID:
		return "VARCHAR(36)"
	case schema.TypeName:
		return "VARCHAR(255)"
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeTimestamp:
		return "TIMESTAMPTZ"
	case schema.TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (s *PostgresStrategy) createTableSQL(t schema.Table) string {
	return "CREATE TABLE IF NOT EXISTS " + s.QuoteIdentifier(t.Name) + " " + t.Body(s)
}

func (s *PostgresStrategy) dropTableSQL(name string) string {
	return "DROP TABLE IF EXISTS " + s.QuoteIdentifier(name) + " CASCADE"
}

// BuildParentDDL renders the partitioned parent for t. The model's own
// single-column key is replaced by (primary key, dateColumn) because a
// partitioned table's unique constraints must include the partition key.
func (s *PostgresStrategy) BuildParentDDL(t schema.Table, dateColumn string) string {
	defs := t.ColumnDefs(s)
	key := s.QuoteIdentifier(t.PrimaryKey)
	if t.PrimaryKey != dateColumn {
		key += ", " + s.QuoteIdentifier(dateColumn)
	}
	defs = append(defs, "PRIMARY KEY ("+key+")")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) PARTITION BY RANGE (%s)",
		s.QuoteIdentifier(t.Name), strings.Join(defs, ",\n\t"), s.QuoteIdentifier(dateColumn))
}

// BuildChildDDL renders the month partition of t containing created, bounded
// by the half-open range [first of month, first of next month).
func (s *PostgresStrategy) BuildChildDDL(t schema.Table, created time.Time) string {
	month := MonthOf(created)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM (%s) TO (%s)",
		s.QuoteIdentifier(s.PartitionName(t.Name, created)),
		s.QuoteIdentifier(t.Name),
		pq.QuoteLiteral(month.Start().Format("2006-01-02 15:04:05-07")),
		pq.QuoteLiteral(month.End().Format("2006-01-02 15:04:05-07")))
}

// monthKey is the verified-partition cache key for created's month.
func (s *PostgresStrategy) monthKey(created time.Time) string {
	return s.PartitionName(schema.Jobs.Name, created)
}

func (s *PostgresStrategy) InitSchema(ctx context.Context) error {
	if err := s.createTables(ctx, schema.LiveTables()); err != nil {
		return err
	}
	for _, t := range schema.ArchiveTables() {
		if err := s.create(ctx, s.BuildParentDDL(t, t.DateColumn)); err != nil {
			return fmt.Errorf("creating partitioned table %s: %w", t.Name, err)
		}
	}
	now := s.now()
	if _, err := s.OpenMonthDB(ctx, now); err != nil {
		return err
	}
	logging.Info("postgres schema ready (archive partitioned by month, current %s)", MonthOf(now))
	return nil
}

// OpenMonthDB creates created's month partition for every archive kind unless
// the cache already vouches for it. Concurrent first callers for a new month
// may both issue the DDL; it is idempotent. The key is only marked verified
// once every partition was created.
func (s *PostgresStrategy) OpenMonthDB(ctx context.Context, created time.Time) (*sqlx.DB, error) {
	key := s.monthKey(created)
	if s.cache.IsVerified(key) {
		return s.OpenDB(), nil
	}

	for _, t := range schema.ArchiveTables() {
		if err := s.create(ctx, s.BuildChildDDL(t, created)); err != nil {
			return nil, fmt.Errorf("creating partition %s: %w", s.PartitionName(t.Name, created), err)
		}
	}
	if s.cache.MarkVerified(key) {
		logging.Debug("archive partitions for %s verified", MonthOf(created))
	}
	return s.OpenDB(), nil
}

// DropTables drops asOf's month partitions, then the parents and live tables.
// The cache is cleared even when a drop fails: absence only means unknown.
func (s *PostgresStrategy) DropTables(ctx context.Context, asOf time.Time) error {
	defer func() {
		s.cache.Reset()
		logging.Debug("partition cache cleared")
	}()

	at := s.at(asOf)
	var children []string
	for _, t := range schema.ArchiveTables() {
		children = append(children, s.PartitionName(t.Name, at))
	}
	if err := s.dropTables(ctx, children); err != nil {
		return err
	}
	return s.dropTables(ctx, tableNames(schema.ArchiveTables(), schema.LiveTables()))
}

type partitionRow struct {
	Parent string `db:"parent"`
	Child  string `db:"child"`
}

// ListPartitionMonths reads the partition catalog. Children whose names do
// not end in a valid _YYYY_MM suffix are skipped.
func (s *PostgresStrategy) ListPartitionMonths(ctx context.Context, db *sqlx.DB) ([]YearMonth, error) {
	if db == nil {
		db = s.OpenDB()
	}
	query, args, err := sqlx.In(partitionCatalogQuery, tableNames(schema.ArchiveTables()))
	if err != nil {
		return nil, fmt.Errorf("building partition query: %w", err)
	}

	var rows []partitionRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}
	return collectMonths(rows), nil
}

// collectMonths parses, de-duplicates and sorts newest first.
func collectMonths(rows []partitionRow) []YearMonth {
	seen := make(map[YearMonth]struct{}, len(rows))
	months := make([]YearMonth, 0, len(rows))
	for _, r := range rows {
		month, err := parsePartitionMonth(r.Parent, r.Child)
		if err != nil {
			logging.Debug("skipping partition: %v", err)
			continue
		}
		if _, dup := seen[month]; dup {
			continue
		}
		seen[month] = struct{}{}
		months = append(months, month)
	}
	slices.SortFunc(months, func(a, b YearMonth) int { return b.Compare(a) })
	return months
}

// FormatDate renders TO_CHAR(column, '<format>').
func (s *PostgresStrategy) FormatDate(column, format string) string {
	return fmt.Sprintf("TO_CHAR(%s, '%s')", column, postgresTokens.translate(format))
}

func (s *PostgresStrategy) FormatChar(code int) string {
	return fmt.Sprintf("CHR(%d)", code)
}
