package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled batch.
type Job func(ctx context.Context) error

// Options configures a Scheduler.
type Options struct {
	// RunOnStart triggers one run as soon as Start is called.
	RunOnStart bool

	// Location interprets the cron expression. Default: time.Local.
	Location *time.Location

	Logger *slog.Logger
}

// Stats counts scheduler activity.
type Stats struct {
	Runs    int64
	Failed  int64
	Skipped int64
}

// Scheduler runs a Job on a cron schedule. Runs never overlap: a tick that
// fires while a run is in progress is skipped and logged.
type Scheduler struct {
	spec       string
	job        Job
	runOnStart bool

	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup

	busy    atomic.Bool
	runs    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// New creates a scheduler for a standard five-field cron expression or a
// descriptor such as "@daily" or "@every 1h".
func New(spec string, job Job, opts Options) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		spec:       spec,
		job:        job,
		runOnStart: opts.RunOnStart,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		logger: logger,
	}, nil
}

// Start begins scheduling. Runs receive ctx; when ctx ends the scheduler
// stops and waits for the current run.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already started")
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.Trigger(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started",
		"schedule", s.spec,
		"run_on_start", s.runOnStart,
		"next_run", s.NextRun(),
	)

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Trigger(ctx)
		}()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Trigger runs the job now unless a run is in progress. It reports whether
// the job ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Warn("previous run still in progress, skipping")
		return false
	}
	defer s.busy.Store(false)

	s.runs.Add(1)
	started := time.Now()
	s.logger.Info("scheduled run starting")

	if err := s.job(ctx); err != nil {
		s.failed.Add(1)
		s.logger.Error("scheduled run failed",
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return true
	}

	s.logger.Info("scheduled run completed",
		"duration_ms", time.Since(started).Milliseconds(),
		"next_run", s.NextRun(),
	)
	return true
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.wg.Wait()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Busy reports whether a run is in progress.
func (s *Scheduler) Busy() bool {
	return s.busy.Load()
}

// Stats returns activity counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Runs:    s.runs.Load(),
		Failed:  s.failed.Load(),
		Skipped: s.skipped.Load(),
	}
}

// NextRun returns the next scheduled run, or the zero time before Start.
// It does not take s.mu, so jobs may call it while Stop is waiting.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
