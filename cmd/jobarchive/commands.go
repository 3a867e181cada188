package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/johndauphine/job-archive/internal/dialect"
	"github.com/johndauphine/job-archive/internal/exitcodes"
	"github.com/johndauphine/job-archive/internal/jobstore"
	"github.com/johndauphine/job-archive/internal/logging"
	"github.com/johndauphine/job-archive/internal/progress"
)

var timeUTC = time.UTC

func initSchema(c *cli.Context) error {
	ctx, cancel := signalContext(c)
	defer cancel()

	f, closeConn, err := openFeature(ctx, c)
	if err != nil {
		return err
	}
	defer closeConn()

	if err := f.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Schema ready (%s)\n", f.Strategy().Kind())
	return nil
}

func dropTables(c *cli.Context) error {
	var asOf time.Time
	if m := c.String("month"); m != "" {
		ym, err := dialect.ParseYearMonth(m)
		if err != nil {
			return exitcodes.NewExitError(fmt.Errorf("invalid value for --month: %w", err), exitcodes.ConfigError)
		}
		asOf = ym.Start()
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	f, closeConn, err := openFeature(ctx, c)
	if err != nil {
		return err
	}
	defer closeConn()

	if err := f.Reset(ctx, asOf); err != nil {
		return err
	}
	logging.Info("Dropped job tables")
	return nil
}

func ensureMonths(c *cli.Context) error {
	var months []dialect.YearMonth
	for _, m := range c.StringSlice("month") {
		ym, err := dialect.ParseYearMonth(m)
		if err != nil {
			return exitcodes.NewExitError(fmt.Errorf("invalid value for --month: %w", err), exitcodes.ConfigError)
		}
		months = append(months, ym)
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	var tracker *progress.Tracker
	if isTerminal(c.App.ErrWriter) {
		tracker = progress.New(c.App.ErrWriter, len(months))
	}

	f, closeConn, err := openFeature(ctx, c, withProgress(tracker))
	if err != nil {
		return err
	}
	defer closeConn()

	err = f.EnsureMonths(ctx, months, c.Int("concurrency"))
	if tracker != nil {
		tracker.Finish()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d month(s) ready\n", len(months))
	return nil
}

func listPartitions(c *cli.Context) error {
	ctx, cancel := signalContext(c)
	defer cancel()

	f, closeConn, err := openFeature(ctx, c)
	if err != nil {
		return err
	}
	defer closeConn()

	months, err := f.Months(ctx)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		out := make([]string, len(months))
		for i, m := range months {
			out[i] = m.String()
		}
		data, err := json.MarshalIndent(map[string]any{
			"dialect": f.Strategy().Kind().String(),
			"months":  out,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal partitions: %w", err)
		}
		fmt.Fprintln(c.App.Writer, string(data))
		return nil
	}

	fmt.Fprint(c.App.Writer, renderMonths(f.Strategy().Kind(), months, isTerminal(c.App.Writer)))
	return nil
}

func dailyCounts(c *cli.Context) error {
	outcome := jobstore.Outcome(c.String("outcome"))
	since := c.Timestamp("since")

	ctx, cancel := signalContext(c)
	defer cancel()

	f, closeConn, err := openFeature(ctx, c)
	if err != nil {
		return err
	}
	defer closeConn()

	counts, err := f.Store().DailyCounts(ctx, outcome, *since)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, renderCounts(outcome, counts, isTerminal(c.App.Writer)))
	return nil
}

func formatDate(c *cli.Context) error {
	identity, err := dialectIdentity(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, dialect.Formatter(identity).FormatDate(c.String("column"), c.String("format")))
	return nil
}

func formatChar(c *cli.Context) error {
	identity, err := dialectIdentity(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, dialect.Formatter(identity).FormatChar(c.Int("code")))
	return nil
}

// dialectIdentity prefers --dialect and falls back to the configured
// database type, so no connection is needed.
func dialectIdentity(c *cli.Context) (string, error) {
	if d := c.String("dialect"); d != "" {
		return d, nil
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return "", err
	}
	return cfg.Database.Type, nil
}
