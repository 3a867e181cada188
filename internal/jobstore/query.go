package jobstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/johndauphine/job-archive/internal/schema"
)

// Outcome selects an archive table.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

func (o Outcome) table() (schema.Table, error) {
	switch o {
	case OutcomeCompleted:
		return schema.JobsCompleted, nil
	case OutcomeFailed:
		return schema.JobsFailed, nil
	}
	return schema.Table{}, fmt.Errorf("unknown outcome %q", string(o))
}

// DayCount is the number of archived jobs created on one UTC day.
type DayCount struct {
	Day  string `db:"bucket"` // YYYY-MM-DD
	Jobs int64  `db:"jobs"`
}

// DailyCounts groups archived jobs of one outcome by creation day, starting
// at since. Days are rendered by the backend's own date formatting.
func (s *Store) DailyCounts(ctx context.Context, o Outcome, since time.Time) ([]DayCount, error) {
	t, err := o.table()
	if err != nil {
		return nil, err
	}

	day := s.strategy.FormatDate(t.DateColumn, "%Y-%m-%d")
	q := fmt.Sprintf(`SELECT %s AS bucket, COUNT(*) AS jobs FROM %s WHERE %s >= ? GROUP BY %s ORDER BY bucket`,
		day, t.Name, t.DateColumn, day)

	db := s.strategy.OpenDB()
	counts := []DayCount{}
	if err := db.SelectContext(ctx, &counts, db.Rebind(q), normalize(since)); err != nil {
		return nil, fmt.Errorf("daily %s counts: %w", o, err)
	}
	return counts, nil
}

func columnList(t schema.Table) string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// insertSQL is a named INSERT covering every column of t.
func insertSQL(t schema.Table) string {
	params := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		params[i] = ":" + c.Name
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, columnList(t), strings.Join(params, ", "))
}
