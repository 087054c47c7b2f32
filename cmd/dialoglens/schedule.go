package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/dialoglens/pkg/cli"
	"mercator-hq/dialoglens/pkg/config"
	"mercator-hq/dialoglens/pkg/scheduler"
	"mercator-hq/dialoglens/pkg/server"
	"mercator-hq/dialoglens/pkg/telemetry/health"
	"mercator-hq/dialoglens/pkg/telemetry/logging"
)

var scheduleCron string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run batches on a cron schedule",
	Long: `Run batches repeatedly on a cron schedule until interrupted.

Batches never overlap. Each batch reads the current configuration, so with
schedule.watch_config enabled edits to the window, limit, labels or output
settings apply from the next batch. While the scheduler runs, Prometheus
metrics and health probes are served on telemetry.metrics.listen_address.

Example:
  dialoglens schedule --config config.yaml --cron "0 9 * * 1-5"`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (overrides schedule.cron)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("cron") {
		cfg.Schedule.Cron = scheduleCron
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	loc, err := loadLocation(cfg.Analysis.Timezone)
	if err != nil {
		return cli.NewConfigError("analysis.timezone", err.Error())
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return commandError("schedule", err)
	}
	defer closeApp(a)

	out := cmd.OutOrStdout()
	job := func(ctx context.Context) error {
		runner, err := a.newRunner(currentConfig(), out)
		if err != nil {
			return err
		}
		_, err = runner.Run(ctx)
		return err
	}

	sched, err := scheduler.New(cfg.Schedule.Cron, job, scheduler.Options{
		RunOnStart: cfg.Schedule.RunOnStart,
		Location:   loc,
		Logger:     logger.Logger,
	})
	if err != nil {
		return cli.NewConfigError("schedule.cron", err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return gctx.Err()
	})

	if cfg.Telemetry.Metrics.Enabled {
		srv, err := newAdminServer(cfg, a, logger)
		if err != nil {
			return commandError("schedule", err)
		}
		g.Go(func() error { return srv.Start(gctx) })
	}

	if cfg.Schedule.WatchConfig && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, logger.Logger)
		if err != nil {
			return commandError("schedule", err)
		}
		g.Go(func() error {
			return watcher.Watch(gctx, func(c *config.Config) { applyReload(logger, c) })
		})
	}

	a.provider.StartHealthChecker(gctx)

	if err := sched.Start(gctx); err != nil {
		return commandError("schedule", err)
	}
	logger.Info("scheduler started",
		"cron", cfg.Schedule.Cron,
		"next_run", sched.NextRun(),
	)

	err = g.Wait()
	sched.Stop()

	stats := sched.Stats()
	logger.Info("scheduler stopped",
		"runs", stats.Runs,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)

	if err != nil && !errors.Is(err, context.Canceled) {
		return commandError("schedule", err)
	}
	return nil
}

// currentConfig returns a copy of the live configuration with the
// command-line verbosity applied.
func currentConfig() *config.Config {
	cfg := *config.GetConfig()
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return &cfg
}

func applyReload(logger *logging.Logger, cfg *config.Config) {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevel(level); err != nil {
		logger.Warn("ignoring invalid log level from reloaded configuration", "level", level, "error", err)
	}
}

// newAdminServer serves metrics and health probes for the schedule command.
func newAdminServer(cfg *config.Config, a *app, logger *logging.Logger) (*server.Server, error) {
	srv, err := server.New(server.Options{
		ListenAddress: cfg.Telemetry.Metrics.ListenAddress,
		Logger:        logger.Logger,
	})
	if err != nil {
		return nil, err
	}
	srv.Handle(cfg.Telemetry.Metrics.Path, a.metrics.Handler())

	checker := health.New(0)
	checker.RegisterCheck("provider", func(ctx context.Context) error {
		healthy := a.provider.IsHealthy()
		a.metrics.UpdateProviderHealth(a.provider.GetName(), healthy)
		if !healthy {
			return fmt.Errorf("provider %s is unhealthy", a.provider.GetName())
		}
		return nil
	})
	checker.RegisterCheck("archive", func(ctx context.Context) error {
		path := config.GetConfig().Messaging.Archive.Path
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("archive unavailable: %w", err)
		}
		return nil
	})
	checker.RegisterCheck("memory", func(ctx context.Context) error {
		_, err := a.engine.MemoryStatus(ctx)
		return err
	})

	health.Register(srv.Mux(), checker, health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
	})
	return srv, nil
}
