package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/johndauphine/job-archive/internal/config"
	"github.com/johndauphine/job-archive/internal/dbconn"
	"github.com/johndauphine/job-archive/internal/exitcodes"
	"github.com/johndauphine/job-archive/internal/jobs"
	"github.com/johndauphine/job-archive/internal/logging"
	"github.com/johndauphine/job-archive/internal/progress"
)

var version = "dev"

const defaultConfigPath = "jobarchive.yaml"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		code := exitcodes.FromError(err)
		fmt.Fprintf(os.Stderr, "Error: %v (%s)\n", err, exitcodes.Description(code))
		os.Exit(code)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "jobarchive",
		Usage:   "Manage monthly job archive tables",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "Path to configuration file (a local SQLite database is used when the default file is absent)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json (overrides logging.format)",
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Usage: "Log verbosity level: debug, info, warn, error (overrides logging.level)",
			},
		},
		Before: func(c *cli.Context) error {
			logging.SetOutput(c.App.ErrWriter)
			if v := c.String("verbosity"); v != "" {
				level, err := logging.ParseLevel(v)
				if err != nil {
					return exitcodes.NewExitError(err, exitcodes.ConfigError)
				}
				logging.SetLevel(level)
			}
			if f := c.String("log-format"); f != "" {
				if _, err := logging.ParseFormat(f); err != nil {
					return exitcodes.NewExitError(err, exitcodes.ConfigError)
				}
				logging.SetFormat(f)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the job tables and the current month's archive partition",
				Action: initSchema,
			},
			{
				Name:   "drop",
				Usage:  "Drop the job tables and the archive partition of one month",
				Action: dropTables,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "month",
						Usage: "Month of the archive partition to drop (YYYY-MM, default: current month)",
					},
				},
			},
			{
				Name:   "ensure",
				Usage:  "Pre-create archive partitions for the given months",
				Action: ensureMonths,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "month",
						Aliases:  []string{"m"},
						Required: true,
						Usage:    "Month to prepare (YYYY-MM), repeatable",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Value: 4,
						Usage: "Partitions created in parallel",
					},
				},
			},
			{
				Name:   "partitions",
				Usage:  "List months that have archive partitions, newest first",
				Action: listPartitions,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
			},
			{
				Name:   "counts",
				Usage:  "Show archived jobs per creation day",
				Action: dailyCounts,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "outcome",
						Value: "completed",
						Usage: "Archive to count: completed or failed",
					},
					&cli.TimestampFlag{
						Name:     "since",
						Layout:   "2006-01-02",
						Timezone: timeUTC,
						Required: true,
						Usage:    "First day to include (YYYY-MM-DD)",
					},
				},
			},
			{
				Name:   "format-date",
				Usage:  "Print the SQL expression formatting a date column",
				Action: formatDate,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dialect",
						Usage: "Backend identity (default: database.type from config)",
					},
					&cli.StringFlag{
						Name:     "column",
						Required: true,
						Usage:    "Column or expression to format",
					},
					&cli.StringFlag{
						Name:  "format",
						Value: "%Y-%m-%d",
						Usage: "Format using %Y %m %d %H %M %S",
					},
				},
			},
			{
				Name:   "format-char",
				Usage:  "Print the SQL expression for a character code",
				Action: formatChar,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dialect",
						Usage: "Backend identity (default: database.type from config)",
					},
					&cli.IntFlag{
						Name:     "code",
						Required: true,
						Usage:    "Character code point",
					},
				},
			},
		},
	}
}

// loadConfig reads --config. A missing default file falls back to the
// built-in SQLite configuration.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		if !c.IsSet("config") && errors.Is(err, os.ErrNotExist) {
			logging.Debug("No %s found, using local SQLite database", path)
			cfg = config.Default()
		} else {
			return nil, exitcodes.NewExitError(fmt.Errorf("failed to load config: %w", err), exitcodes.ConfigError)
		}
	}

	if !c.IsSet("verbosity") {
		if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
			logging.SetLevel(level)
		}
	}
	if !c.IsSet("log-format") {
		logging.SetFormat(cfg.Logging.Format)
	}
	logging.Debug("Config: %+v", *cfg.Sanitized())
	return cfg, nil
}

type featureOption func(*jobs.Options)

func withProgress(t *progress.Tracker) featureOption {
	return func(o *jobs.Options) {
		if t != nil {
			o.Progress = t
		}
	}
}

// openFeature loads config, connects and builds the job feature. The
// returned close function logs pool usage and releases the connection.
func openFeature(ctx context.Context, c *cli.Context, opts ...featureOption) (*jobs.Feature, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	conn, err := dbconn.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, exitcodes.NewExitError(err, exitcodes.ConnectionError)
	}

	jo := jobs.Options{
		Connector:  conn,
		RetryCount: cfg.Jobs.RetryCount,
		Timeout:    cfg.Jobs.Timeout,
	}
	for _, opt := range opts {
		opt(&jo)
	}
	f, err := jobs.New(jo)
	if err != nil {
		conn.Close()
		return nil, nil, exitcodes.NewExitError(err, exitcodes.ConfigError)
	}
	return f, func() {
		logging.Debug("Pool %s", conn.PoolStats())
		conn.Close()
	}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
}
