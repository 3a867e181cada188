// Package jobstore reads and writes job rows. Live jobs go to the ordinary
// connection; archive rows go through the month-scoped connection for the
// row's created_at, which makes sure the monthly partition exists first.
package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/johndauphine/job-archive/internal/dialect"
	"github.com/johndauphine/job-archive/internal/schema"
)

// ErrNotFound is returned when no live job has the requested id.
var ErrNotFound = errors.New("job not found")

// Job statuses.
const (
	StatusPending = "pending"
	StatusRunning = "running"
)

// Job is a row of the live jobs table.
type Job struct {
	ID             string         `db:"id"`
	Type           string         `db:"type"`
	Status         string         `db:"status"`
	Payload        string         `db:"payload"`
	RetryCount     int            `db:"retry_count"`
	MaxRetries     int            `db:"max_retries"`
	TimeoutSeconds int            `db:"timeout_seconds"`
	LockedBy       sql.NullString `db:"locked_by"`
	LockedUntil    sql.NullTime   `db:"locked_until"`
	AvailableAt    time.Time      `db:"available_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// CompletedJob is a row of jobs_completed.
type CompletedJob struct {
	ID          string    `db:"id"`
	Type        string    `db:"type"`
	Payload     string    `db:"payload"`
	Result      string    `db:"result"`
	RetryCount  int       `db:"retry_count"`
	CreatedAt   time.Time `db:"created_at"`
	CompletedAt time.Time `db:"completed_at"`
}

// FailedJob is a row of jobs_failed.
type FailedJob struct {
	ID           string    `db:"id"`
	Type         string    `db:"type"`
	Payload      string    `db:"payload"`
	ErrorMessage string    `db:"error_message"`
	RetryCount   int       `db:"retry_count"`
	CreatedAt    time.Time `db:"created_at"`
	FailedAt     time.Time `db:"failed_at"`
}

// Completed builds the archive row for a job that finished at the given time.
func Completed(j *Job, result string, at time.Time) CompletedJob {
	return CompletedJob{
		ID: j.ID, Type: j.Type, Payload: j.Payload, Result: result,
		RetryCount: j.RetryCount, CreatedAt: j.CreatedAt, CompletedAt: at,
	}
}

// Failed builds the archive row for a job that gave up at the given time.
func Failed(j *Job, cause error, at time.Time) FailedJob {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return FailedJob{
		ID: j.ID, Type: j.Type, Payload: j.Payload, ErrorMessage: msg,
		RetryCount: j.RetryCount, CreatedAt: j.CreatedAt, FailedAt: at,
	}
}

// Defaults applied by Enqueue to zero-valued fields.
type Defaults struct {
	MaxRetries int
	Timeout    time.Duration
}

// Store persists jobs through a dialect strategy.
type Store struct {
	strategy dialect.Strategy
	defaults Defaults
	now      func() time.Time
}

// New returns a store writing through s.
func New(s dialect.Strategy, d Defaults) *Store {
	return &Store{strategy: s, defaults: d, now: time.Now}
}

// Enqueue inserts a live job. Missing id, status and timestamps are filled
// in and written back to j.
func (s *Store) Enqueue(ctx context.Context, j *Job) error {
	now := s.now()
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = StatusPending
	}
	if j.MaxRetries == 0 {
		j.MaxRetries = s.defaults.MaxRetries
	}
	if j.TimeoutSeconds == 0 {
		j.TimeoutSeconds = int(s.defaults.Timeout / time.Second)
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.AvailableAt.IsZero() {
		j.AvailableAt = j.CreatedAt
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}
	j.CreatedAt, j.AvailableAt, j.UpdatedAt = normalize(j.CreatedAt), normalize(j.AvailableAt), normalize(j.UpdatedAt)
	if j.LockedUntil.Valid {
		j.LockedUntil.Time = normalize(j.LockedUntil.Time)
	}

	if _, err := s.strategy.OpenDB().NamedExecContext(ctx, insertSQL(schema.Jobs), j); err != nil {
		return fmt.Errorf("enqueue job %s: %w", j.ID, err)
	}
	return nil
}

// Get loads a live job by id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	db := s.strategy.OpenDB()
	var j Job
	err := db.GetContext(ctx, &j, db.Rebind(`SELECT `+columnList(schema.Jobs)+` FROM jobs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &j, nil
}

// Delete removes a live job.
func (s *Store) Delete(ctx context.Context, id string) error {
	db := s.strategy.OpenDB()
	res, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM jobs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ArchiveCompleted writes a completed-job row into the archive for its
// creation month.
func (s *Store) ArchiveCompleted(ctx context.Context, rec CompletedJob) error {
	rec.CreatedAt, rec.CompletedAt = normalize(rec.CreatedAt), normalize(rec.CompletedAt)
	return s.archive(ctx, schema.JobsCompleted, rec.ID, rec.CreatedAt, rec)
}

// ArchiveFailed writes a failed-job row into the archive for its creation
// month.
func (s *Store) ArchiveFailed(ctx context.Context, rec FailedJob) error {
	rec.CreatedAt, rec.FailedAt = normalize(rec.CreatedAt), normalize(rec.FailedAt)
	return s.archive(ctx, schema.JobsFailed, rec.ID, rec.CreatedAt, rec)
}

func (s *Store) archive(ctx context.Context, t schema.Table, id string, created time.Time, rec any) error {
	if created.IsZero() {
		return fmt.Errorf("archive job %s: created_at is required", id)
	}
	db, err := s.strategy.OpenMonthDB(ctx, created)
	if err != nil {
		return fmt.Errorf("archive job %s: %w", id, err)
	}
	if _, err := db.NamedExecContext(ctx, insertSQL(t), rec); err != nil {
		return fmt.Errorf("archive job %s into %s: %w", id, t.Name, err)
	}
	return nil
}

// normalize stores instants as UTC with the precision every backend keeps.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
