package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/dialoglens/pkg/analysis"
	"mercator-hq/dialoglens/pkg/cli"
	"mercator-hq/dialoglens/pkg/config"
	"mercator-hq/dialoglens/pkg/history"
	"mercator-hq/dialoglens/pkg/memory"
	"mercator-hq/dialoglens/pkg/messaging"
	"mercator-hq/dialoglens/pkg/messaging/archive"
	"mercator-hq/dialoglens/pkg/pipeline"
	"mercator-hq/dialoglens/pkg/providers"
	"mercator-hq/dialoglens/pkg/providers/gemini"
	"mercator-hq/dialoglens/pkg/report"
	"mercator-hq/dialoglens/pkg/telemetry/logging"
	"mercator-hq/dialoglens/pkg/telemetry/metrics"
	"mercator-hq/dialoglens/pkg/telemetry/tracing"
)

// loadConfig installs the process-wide configuration and returns a copy
// the command may adjust with its flags.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(configSource(), fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := *config.GetConfig()
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return &cfg, nil
}

func configSource() string {
	if cfgFile == "" {
		return "environment"
	}
	return cfgFile
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	lc := logging.FromConfig(&cfg.Telemetry.Logging)
	lc.Writer = w

	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	for _, name := range logger.InvalidPatterns {
		logger.Warn("ignoring invalid redaction pattern", "name", name)
	}
	slog.SetDefault(logger.Logger)
	return logger, nil
}

// app holds the long-lived components shared by run and schedule.
type app struct {
	logger   *logging.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	provider *gemini.Provider
	memory   memory.Store
	engine   *analysis.Engine
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	if err := config.RequireProviderKey(cfg); err != nil {
		return nil, cli.NewConfigError("provider.api_key", err.Error())
	}

	a := &app{logger: logger}
	ready := false
	defer func() {
		if !ready {
			a.Close(context.Background())
		}
	}()

	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	var err error
	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	a.provider, err = gemini.NewProvider(providerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	a.metrics.UpdateProviderHealth(a.provider.GetName(), a.provider.IsHealthy())

	a.memory, err = newMemoryStore(ctx, cfg, logger.Logger)
	if err != nil {
		return nil, err
	}

	instruction, err := analysis.LoadInstruction(cfg.Analysis.InstructionFile,
		analysis.InstructionData{Language: cfg.Analysis.ResponseLanguage})
	if err != nil {
		return nil, cli.NewConfigError("analysis.instruction_file", err.Error())
	}

	a.engine, err = analysis.NewEngine(a.provider, a.memory, analysis.Options{
		Model:           cfg.Analysis.Model,
		Instruction:     instruction,
		RequestTimeout:  cfg.Analysis.RequestTimeout,
		Temperature:     cfg.Analysis.Temperature,
		MaxOutputTokens: cfg.Analysis.MaxOutputTokens,
		Logger:          logger.Logger,
		Metrics:         a.metrics,
		Tracer:          a.tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis engine: %w", err)
	}

	logger.Debug("components initialized",
		"provider", a.provider.GetName(),
		"model", cfg.Analysis.Model,
		"memory_backend", cfg.Memory.Backend,
		"tracing", a.tracer.Enabled(),
	)
	ready = true
	return a, nil
}

// newRunner builds a runner for one batch from cfg. Batch-level settings
// are read on every call so schedule mode picks up reloaded values.
func (a *app) newRunner(cfg *config.Config, out io.Writer) (*pipeline.Runner, error) {
	transcript, err := transcriptOptions(cfg)
	if err != nil {
		return nil, err
	}

	session, err := newSession(cfg, a.logger.Logger)
	if err != nil {
		return nil, err
	}

	format, err := cli.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		return nil, cli.NewConfigError("output.format", err.Error())
	}

	renderer := report.NewRenderer(report.Options{
		Writer:       out,
		Format:       format,
		ShowMessages: cfg.Output.ShowMessages,
		Transcript:   transcript,
	})

	return pipeline.NewRunner(session, a.engine, renderer, pipeline.Options{
		LookbackDays:      cfg.Analysis.LookbackDays,
		ConversationLimit: cfg.Messaging.ConversationLimit,
		Transcript:        transcript,
		Logger:            a.logger.Logger,
		Metrics:           a.metrics,
		Tracer:            a.tracer,
	})
}

// Close releases every component that was created.
func (a *app) Close(ctx context.Context) {
	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			a.logger.Warn("failed to close memory store", "error", err)
		}
	} else if a.memory != nil {
		_ = a.memory.Close()
	}
	if a.provider != nil {
		_ = a.provider.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}
}

func providerConfig(cfg *config.Config) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:         cfg.Provider.Name,
		Type:         "gemini",
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       cfg.Provider.APIKey,
		Timeout:      cfg.Provider.Timeout,
		MaxRetries:   cfg.Provider.MaxRetries,
		RetryBackoff: cfg.Provider.RetryBackoff,
	}
}

func newMemoryStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (memory.Store, error) {
	switch cfg.Memory.Backend {
	case "redis":
		r := cfg.Memory.Redis
		store, err := memory.DialRedis(ctx, r.Addr, r.Password, r.DB, memory.RedisOptions{
			KeyPrefix: r.KeyPrefix,
			MaxTurns:  cfg.Memory.MaxTurns,
			IdleTTL:   cfg.Memory.IdleTTL,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open memory store: %w", err)
		}
		return store, nil
	case "local", "":
		return memory.NewLocal(memory.LocalOptions{
			MaxTurns: cfg.Memory.MaxTurns,
			IdleTTL:  cfg.Memory.IdleTTL,
			Logger:   logger,
		}), nil
	default:
		return nil, cli.NewConfigError("memory.backend", fmt.Sprintf("unsupported backend %q", cfg.Memory.Backend))
	}
}

func newSession(cfg *config.Config, logger *slog.Logger) (messaging.Session, error) {
	switch cfg.Messaging.Backend {
	case "archive", "":
		return archive.NewSession(archiveConfig(cfg, false), logger), nil
	default:
		return nil, cli.NewConfigError("messaging.backend", fmt.Sprintf("unsupported backend %q", cfg.Messaging.Backend))
	}
}

func archiveConfig(cfg *config.Config, create bool) archive.Config {
	return archive.Config{
		Path:        cfg.Messaging.Archive.Path,
		Driver:      cfg.Messaging.Archive.Driver,
		BusyTimeout: cfg.Messaging.Archive.BusyTimeout,
		Create:      create,
	}
}

func transcriptOptions(cfg *config.Config) (history.TranscriptOptions, error) {
	loc, err := loadLocation(cfg.Analysis.Timezone)
	if err != nil {
		return history.TranscriptOptions{}, cli.NewConfigError("analysis.timezone", err.Error())
	}
	return history.TranscriptOptions{
		OperatorLabel:    cfg.Analysis.OperatorLabel,
		CounterpartLabel: cfg.Analysis.CounterpartLabel,
		Location:         loc,
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// commandError wraps err for the named command unless it already carries
// a configuration error, which is reported as is.
func commandError(command string, err error) error {
	var cerr *cli.ConfigError
	if errors.As(err, &cerr) {
		return err
	}
	return cli.NewCommandError(command, err)
}
