// Package progress renders a progress bar while archive partitions are
// prepared.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/johndauphine/job-archive/internal/dialect"
	"github.com/johndauphine/job-archive/internal/logging"
)

// Tracker counts prepared months and draws a bar on w.
type Tracker struct {
	bar       *progressbar.ProgressBar
	total     int
	done      atomic.Int64
	startTime time.Time

	mu     sync.Mutex
	failed []dialect.YearMonth
}

// New creates a tracker for total months.
func New(w io.Writer, total int) *Tracker {
	return &Tracker{
		total:     total,
		startTime: time.Now(),
		bar: progressbar.NewOptions(
			total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Preparing partitions"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("months"),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

// MonthDone records one finished month. Safe for concurrent use.
func (t *Tracker) MonthDone(m dialect.YearMonth, err error) {
	t.done.Add(1)
	if err != nil {
		t.mu.Lock()
		t.failed = append(t.failed, m)
		t.mu.Unlock()
	}
	t.bar.Describe(fmt.Sprintf("Prepared %s", m))
	_ = t.bar.Add(1)
}

// Done returns how many months have finished, failed or not.
func (t *Tracker) Done() int64 {
	return t.done.Load()
}

// Failed returns the months whose preparation failed.
func (t *Tracker) Failed() []dialect.YearMonth {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]dialect.YearMonth(nil), t.failed...)
}

// Finish completes the bar and logs a summary.
func (t *Tracker) Finish() {
	_ = t.bar.Finish()

	elapsed := time.Since(t.startTime)
	logging.Info("Prepared %d/%d months in %s (%d failed)",
		t.done.Load()-int64(len(t.Failed())), t.total, elapsed.Round(time.Millisecond), len(t.Failed()))
}
