package config

import "time"

// Config is the root configuration structure for dialoglens.
// It contains all configuration sections for the messaging backend, the
// analysis engine, the language-model provider, conversation memory,
// output rendering, scheduling, and telemetry.
type Config struct {
	// Messaging configures where conversations are read from.
	Messaging MessagingConfig `yaml:"messaging"`

	// Analysis configures conversation windowing and prompt assembly.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Provider configures the generative-language service.
	Provider ProviderConfig `yaml:"provider"`

	// Memory configures per-conversation exchange memory.
	Memory MemoryConfig `yaml:"memory"`

	// Output configures how reports are rendered to the console.
	Output OutputConfig `yaml:"output"`

	// Schedule configures repeated batch runs for the schedule command.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Telemetry contains configuration for logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets configures resolution of ${secret:name} references.
	Secrets SecretsConfig `yaml:"secrets"`
}

// SecretsConfig configures where ${secret:name} references in
// provider.api_key and memory.redis.password are looked up. The secrets
// directory is tried first, then the environment.
type SecretsConfig struct {
	// Dir is a directory holding one file per secret (0600 or 0400).
	// Empty disables file lookup.
	Dir string `yaml:"dir"`

	// EnvPrefix is prepended to the upper-cased secret name.
	// Default: "DIALOGLENS_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`
}

// MessagingConfig contains configuration for the messaging collaborator.
type MessagingConfig struct {
	// Backend selects the messaging session implementation.
	// Options: "archive"
	// Default: "archive"
	Backend string `yaml:"backend"`

	// ConversationLimit is the maximum number of recent conversations
	// enumerated per batch.
	// Default: 10
	ConversationLimit int `yaml:"conversation_limit"`

	// Archive configures the SQLite chat archive backend.
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig contains configuration for the SQLite chat archive.
type ArchiveConfig struct {
	// Driver is the database/sql driver name.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the archive database file.
	// Default: "data/archive.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for database locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AnalysisConfig contains configuration for the analysis pipeline.
type AnalysisConfig struct {
	// LookbackDays is the size of the conversation window in days.
	// Default: 1
	LookbackDays int `yaml:"lookback_days"`

	// Model is the generative model used for analysis.
	// Default: "gemini-2.0-flash"
	Model string `yaml:"model"`

	// ResponseLanguage is the language the report must be written in.
	// Default: "English"
	ResponseLanguage string `yaml:"response_language"`

	// OperatorLabel is the transcript label for the authenticated account.
	// Default: "Operator"
	OperatorLabel string `yaml:"operator_label"`

	// CounterpartLabel is the transcript label for the other party.
	// Default: "Counterpart"
	CounterpartLabel string `yaml:"counterpart_label"`

	// Timezone is the IANA zone used to render transcript timestamps.
	// Default: "UTC"
	Timezone string `yaml:"timezone"`

	// RequestTimeout bounds a single analysis request end to end,
	// including the provider retry.
	// Default: 90s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// InstructionFile optionally replaces the built-in system instruction
	// with the contents of a file.
	InstructionFile string `yaml:"instruction_file"`

	// Temperature is passed to the model's generation config.
	// Default: 0 (provider default)
	Temperature float64 `yaml:"temperature"`

	// MaxOutputTokens caps the report length. Zero leaves it unset.
	MaxOutputTokens int `yaml:"max_output_tokens"`
}

// ProviderConfig contains configuration for the generative-language provider.
type ProviderConfig struct {
	// Name is the provider identifier used in logs and metrics.
	// Default: "gemini"
	Name string `yaml:"name"`

	// BaseURL is the base URL for the provider's API endpoint.
	// Default: "https://generativelanguage.googleapis.com"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider.
	// This should be supplied via DIALOGLENS_PROVIDER_API_KEY.
	APIKey string `yaml:"api_key"`

	// Timeout is the maximum duration for a single HTTP attempt.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries for transient failures.
	// Default: 1
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the delay before the first retry.
	// Default: 1s
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// MemoryConfig contains configuration for conversation memory.
type MemoryConfig struct {
	// Backend selects the memory store.
	// Options: "local", "redis"
	// Default: "local"
	Backend string `yaml:"backend"`

	// MaxTurns is the maximum number of turns retained per conversation.
	// Default: 20
	MaxTurns int `yaml:"max_turns"`

	// IdleTTL evicts conversations that have not been touched for this long.
	// Zero disables eviction.
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	// Addr is the redis server address.
	// Default: "localhost:6379"
	Addr string `yaml:"addr"`

	// Password is the redis password.
	Password string `yaml:"password"`

	// DB is the redis database number.
	DB int `yaml:"db"`

	// KeyPrefix namespaces memory keys.
	// Default: "dialoglens:memory:"
	KeyPrefix string `yaml:"key_prefix"`
}

// OutputConfig contains console rendering configuration.
type OutputConfig struct {
	// Format is the report format.
	// Options: "text", "json"
	// Default: "text"
	Format string `yaml:"format"`

	// ShowMessages prints the conversation window before the report.
	// Default: true
	ShowMessages bool `yaml:"show_messages"`
}

// ScheduleConfig contains configuration for repeated batch runs.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression or descriptor.
	// Default: "0 9 * * *"
	Cron string `yaml:"cron"`

	// WatchConfig reloads the configuration file when it changes.
	// Default: true
	WatchConfig bool `yaml:"watch_config"`

	// RunOnStart triggers one batch immediately when the scheduler starts.
	// Default: false
	RunOnStart bool `yaml:"run_on_start"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic PII redaction in logs.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom PII redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom PII redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric namespace prefix.
	// Default: "dialoglens"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem.
	// Default: "pipeline"
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is where the schedule command serves metrics.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// AnalysisDurationBuckets are histogram buckets in seconds.
	AnalysisDurationBuckets []float64 `yaml:"analysis_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds exports to the collector.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service name in traces.
	// Default: "dialoglens"
	ServiceName string `yaml:"service_name"`
}
