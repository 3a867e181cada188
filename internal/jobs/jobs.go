// Package jobs wires the archive storage into a job engine. It owns the
// retry and timeout defaults, builds the dialect strategy for the connected
// backend and hands both to the engine on start.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/syncs"

	"github.com/johndauphine/job-archive/internal/dialect"
	"github.com/johndauphine/job-archive/internal/jobstore"
	"github.com/johndauphine/job-archive/internal/logging"
)

// Defaults used when Options leave a setting at zero.
const (
	DefaultRetryCount = 3
	DefaultTimeout    = 30 * time.Minute
)

// ErrMissingConnector is returned by New without a connection factory.
var ErrMissingConnector = dialect.ErrMissingConnector

// Settings are the job execution defaults handed to the engine.
type Settings struct {
	RetryCount int
	Timeout    time.Duration
}

// Engine is the job execution engine. It receives the configured strategy
// and settings once the schema is in place.
type Engine interface {
	Configure(s dialect.Strategy, settings Settings) error
}

// Progress observes EnsureMonths. MonthDone is called concurrently.
type Progress interface {
	MonthDone(m dialect.YearMonth, err error)
}

// Options configure a Feature.
type Options struct {
	Connector      dialect.Connector // required
	Engine         Engine            // optional
	Progress       Progress          // optional
	RetryCount     int
	Timeout        time.Duration
	DialectOptions []dialect.Option // a WithPartitionCache here is ignored; the feature owns the cache
}

// Feature ties a strategy, its partition cache and a job store together.
type Feature struct {
	strategy dialect.Strategy
	cache    *dialect.PartitionCache
	store    *jobstore.Store
	engine   Engine
	progress Progress
	settings Settings
}

// New validates opts and selects the strategy for the connected backend.
func New(opts Options) (*Feature, error) {
	if opts.Connector == nil {
		return nil, ErrMissingConnector
	}
	if opts.RetryCount < 0 {
		return nil, fmt.Errorf("invalid value for retry count: %d", opts.RetryCount)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("invalid value for timeout: %v", opts.Timeout)
	}

	settings := Settings{RetryCount: opts.RetryCount, Timeout: opts.Timeout}
	if settings.RetryCount == 0 {
		settings.RetryCount = DefaultRetryCount
	}
	if settings.Timeout == 0 {
		settings.Timeout = DefaultTimeout
	}

	cache := dialect.NewPartitionCache()
	dopts := make([]dialect.Option, 0, len(opts.DialectOptions)+1)
	dopts = append(dopts, opts.DialectOptions...)
	dopts = append(dopts, dialect.WithPartitionCache(cache))
	strategy, err := dialect.New(opts.Connector, dopts...)
	if err != nil {
		return nil, err
	}

	return &Feature{
		strategy: strategy,
		cache:    cache,
		store:    jobstore.New(strategy, jobstore.Defaults{MaxRetries: settings.RetryCount, Timeout: settings.Timeout}),
		engine:   opts.Engine,
		progress: opts.Progress,
		settings: settings,
	}, nil
}

// Start creates the schema and the current month's partition, then hands
// the strategy to the engine.
func (f *Feature) Start(ctx context.Context) error {
	if err := f.strategy.InitSchema(ctx); err != nil {
		return fmt.Errorf("initializing job schema: %w", err)
	}
	if f.engine == nil {
		return nil
	}
	if err := f.engine.Configure(f.strategy, f.settings); err != nil {
		return fmt.Errorf("configuring job engine: %w", err)
	}
	return nil
}

// EnsureMonths pre-creates the archive partitions for months, running at
// most concurrency creations at once. All failures are returned joined.
func (f *Feature) EnsureMonths(ctx context.Context, months []dialect.YearMonth, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	gr := syncs.NewSizedGroup(concurrency)
	for _, m := range months {
		gr.Go(func(context.Context) {
			err := ctx.Err()
			if err == nil {
				_, err = f.strategy.OpenMonthDB(ctx, m.Start())
			}
			if f.progress != nil {
				f.progress.MonthDone(m, err)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("month %s: %w", m, err))
				mu.Unlock()
				return
			}
			logging.Debug("Archive partitions ready for %s", m)
		})
	}
	gr.Wait()
	return errors.Join(errs...)
}

// Months lists the months that have archive partitions, newest first.
func (f *Feature) Months(ctx context.Context) ([]dialect.YearMonth, error) {
	return f.strategy.ListPartitionMonths(ctx, f.strategy.OpenDB())
}

// Reset drops every job table for the month of asOf and forgets which
// partitions were verified.
func (f *Feature) Reset(ctx context.Context, asOf time.Time) error {
	if err := f.strategy.DropTables(ctx, asOf); err != nil {
		return fmt.Errorf("dropping job tables: %w", err)
	}
	return nil
}

func (f *Feature) Strategy() dialect.Strategy      { return f.strategy }
func (f *Feature) Cache() *dialect.PartitionCache { return f.cache }
func (f *Feature) Store() *jobstore.Store         { return f.store }
func (f *Feature) Settings() Settings             { return f.settings }
