package dialect

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/johndauphine/job-archive/internal/logging"
	"github.com/johndauphine/job-archive/internal/schema"
)

// ddlRenderer is the per-variant half of a strategy: identifier quoting,
// type mapping and the idempotent create/drop statement shapes.
type ddlRenderer interface {
	schema.Renderer
	createTableSQL(t schema.Table) string
	dropTableSQL(name string) string
}

// base carries what every variant shares.
type base struct {
	conn Connector
	r    ddlRenderer
	now  func() time.Time
	kind Kind
}

func (b *base) Kind() Kind { return b.kind }

func (b *base) OpenDB() *sqlx.DB { return b.conn.DB() }

func (b *base) PartitionName(table string, t time.Time) string {
	return PartitionName(table, t)
}

// at resolves an optional reference time to UTC; zero means now.
func (b *base) at(t time.Time) time.Time {
	if t.IsZero() {
		return b.now().UTC()
	}
	return t.UTC()
}

// create executes an idempotent CREATE. Losing a race to a concurrent
// identical CREATE is not an error.
func (b *base) create(ctx context.Context, stmt string) error {
	_, err := b.conn.DB().ExecContext(ctx, stmt)
	if err != nil && isAlreadyExists(err) {
		logging.Debug("%s: object created concurrently, continuing", b.kind)
		return nil
	}
	return err
}

func (b *base) createTables(ctx context.Context, tables []schema.Table) error {
	for _, t := range tables {
		if err := b.create(ctx, b.r.createTableSQL(t)); err != nil {
			return fmt.Errorf("creating table %s: %w", t.Name, err)
		}
	}
	return nil
}

func (b *base) dropTables(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := b.conn.DB().ExecContext(ctx, b.r.dropTableSQL(name)); err != nil {
			return fmt.Errorf("dropping table %s: %w", name, err)
		}
	}
	return nil
}

func tableNames(tables ...[]schema.Table) []string {
	var names []string
	for _, group := range tables {
		for _, t := range group {
			names = append(names, t.Name)
		}
	}
	return names
}

// flat is the lifecycle of backends that keep one archive table per kind.
// Archive growth is unbounded there; partition names are informational.
type flat struct {
	base
}

func (f *flat) InitSchema(ctx context.Context) error {
	if err := f.createTables(ctx, schema.LiveTables()); err != nil {
		return err
	}
	if err := f.createTables(ctx, schema.ArchiveTables()); err != nil {
		return err
	}
	if _, err := f.OpenMonthDB(ctx, f.now()); err != nil {
		return err
	}
	logging.Info("%s schema ready (archive tables not partitioned)", f.kind)
	return nil
}

func (f *flat) DropTables(ctx context.Context, asOf time.Time) error {
	month := MonthOf(f.at(asOf))
	logging.Debug("%s: dropping job tables as of %s", f.kind, month)
	return f.dropTables(ctx, tableNames(schema.LiveTables(), schema.ArchiveTables()))
}

// OpenMonthDB is a pass-through: there is no partition to ensure.
func (f *flat) OpenMonthDB(_ context.Context, _ time.Time) (*sqlx.DB, error) {
	return f.OpenDB(), nil
}

// ListPartitionMonths always returns an empty slice.
func (f *flat) ListPartitionMonths(_ context.Context, _ *sqlx.DB) ([]YearMonth, error) {
	return []YearMonth{}, nil
}
