package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "analysis.lookback_days").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
//
// The provider API key is not checked here: commands that never reach the
// provider (import, validate) must work without it. RequireProviderKey
// performs that check for commands that do.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateMessaging(&cfg.Messaging)...)
	errs = append(errs, validateAnalysis(&cfg.Analysis)...)
	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateMemory(&cfg.Memory)...)
	errs = append(errs, validateOutput(&cfg.Output)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// RequireProviderKey reports a validation error when no provider API key is set.
func RequireProviderKey(cfg *Config) error {
	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		return ValidationError{Errors: []FieldError{{
			Field:   "provider.api_key",
			Message: "API key is required (set DIALOGLENS_PROVIDER_API_KEY)",
		}}}
	}
	return nil
}

func validateMessaging(cfg *MessagingConfig) []FieldError {
	var errs []FieldError

	if cfg.Backend != "archive" {
		errs = append(errs, FieldError{
			Field:   "messaging.backend",
			Message: fmt.Sprintf("unsupported backend %q (supported: archive)", cfg.Backend),
		})
	}
	if cfg.ConversationLimit < 1 {
		errs = append(errs, FieldError{
			Field:   "messaging.conversation_limit",
			Message: "must be at least 1",
		})
	}
	switch cfg.Archive.Driver {
	case "sqlite", "sqlite3":
	default:
		errs = append(errs, FieldError{
			Field:   "messaging.archive.driver",
			Message: fmt.Sprintf("unsupported driver %q (supported: sqlite, sqlite3)", cfg.Archive.Driver),
		})
	}
	if cfg.Archive.Path == "" {
		errs = append(errs, FieldError{
			Field:   "messaging.archive.path",
			Message: "path is required",
		})
	}

	return errs
}

func validateAnalysis(cfg *AnalysisConfig) []FieldError {
	var errs []FieldError

	if cfg.LookbackDays < 1 {
		errs = append(errs, FieldError{
			Field:   "analysis.lookback_days",
			Message: "must be at least 1",
		})
	}
	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, FieldError{
			Field:   "analysis.model",
			Message: "model is required",
		})
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, FieldError{
			Field:   "analysis.timezone",
			Message: fmt.Sprintf("unknown timezone %q", cfg.Timezone),
		})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "analysis.request_timeout",
			Message: "must not be negative",
		})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "analysis.temperature",
			Message: "must be between 0 and 2",
		})
	}
	if cfg.MaxOutputTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "analysis.max_output_tokens",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "provider.base_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "provider.timeout",
			Message: "must be positive",
		})
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 5 {
		errs = append(errs, FieldError{
			Field:   "provider.max_retries",
			Message: "must be between 0 and 5",
		})
	}
	if cfg.RetryBackoff < 0 {
		errs = append(errs, FieldError{
			Field:   "provider.retry_backoff",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateMemory(cfg *MemoryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "local":
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{
				Field:   "memory.redis.addr",
				Message: "address is required for the redis backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "memory.backend",
			Message: fmt.Sprintf("unsupported backend %q (supported: local, redis)", cfg.Backend),
		})
	}
	// Two turns make one exchange; anything smaller cannot hold a pair.
	if cfg.MaxTurns < 2 {
		errs = append(errs, FieldError{
			Field:   "memory.max_turns",
			Message: "must be at least 2",
		})
	}
	if cfg.IdleTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "memory.idle_ttl",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateOutput(cfg *OutputConfig) []FieldError {
	switch cfg.Format {
	case "text", "json":
		return nil
	default:
		return []FieldError{{
			Field:   "output.format",
			Message: fmt.Sprintf("unsupported format %q (supported: text, json)", cfg.Format),
		}}
	}
}

func validateSchedule(cfg *ScheduleConfig) []FieldError {
	if _, err := cron.ParseStandard(cfg.Cron); err != nil {
		return []FieldError{{
			Field:   "schedule.cron",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Cron, err),
		}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}
	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "must be between 0.0 and 1.0",
			})
		}
	}

	return errs
}
