package config

import "time"

// Default values for configuration fields.
const (
	// DefaultSecretsEnvPrefix namespaces secret environment variables.
	DefaultSecretsEnvPrefix = "DIALOGLENS_SECRET_"

	// Messaging defaults
	DefaultMessagingBackend     = "archive"
	DefaultConversationLimit    = 10
	DefaultArchiveDriver        = "sqlite"
	DefaultArchivePath          = "data/archive.db"
	DefaultArchiveBusyTimeout   = 5 * time.Second
	DefaultAnalysisLookbackDays = 1

	// Analysis defaults
	DefaultAnalysisModel          = "gemini-2.0-flash"
	DefaultResponseLanguage       = "English"
	DefaultOperatorLabel          = "Operator"
	DefaultCounterpartLabel       = "Counterpart"
	DefaultTimezone               = "UTC"
	DefaultAnalysisRequestTimeout = 90 * time.Second

	// Provider defaults
	DefaultProviderName         = "gemini"
	DefaultProviderBaseURL      = "https://generativelanguage.googleapis.com"
	DefaultProviderTimeout      = 60 * time.Second
	DefaultProviderMaxRetries   = 1
	DefaultProviderRetryBackoff = 1 * time.Second

	// Memory defaults
	DefaultMemoryBackend   = "local"
	DefaultMemoryMaxTurns  = 20
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisKeyPrefix  = "dialoglens:memory:"
	DefaultOutputFormat    = "text"
	DefaultOutputShowMsgs  = true
	DefaultScheduleCron    = "0 9 * * *"
	DefaultScheduleWatch   = true
	DefaultScheduleOnStart = false

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultLoggingRedactPII   = true
	DefaultMetricsEnabled     = true
	DefaultMetricsNamespace   = "dialoglens"
	DefaultMetricsSubsystem   = "pipeline"
	DefaultMetricsListen      = "127.0.0.1:9464"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingEnabled     = false
	DefaultTracingSampleRatio = 1.0
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "dialoglens"
)

// DefaultAnalysisDurationBuckets are tuned for LLM latencies (250ms - 2m).
var DefaultAnalysisDurationBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

// NewDefaultConfig returns a configuration populated entirely with defaults.
// It is used when no configuration file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Output.ShowMessages = DefaultOutputShowMsgs
	cfg.Schedule.WatchConfig = DefaultScheduleWatch
	cfg.Telemetry.Logging.RedactPII = DefaultLoggingRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their default values.
// Boolean fields are left untouched because false is a meaningful value;
// NewDefaultConfig and LoadConfig seed them before YAML decoding instead.
func ApplyDefaults(cfg *Config) {
	applyMessagingDefaults(&cfg.Messaging)
	applyAnalysisDefaults(&cfg.Analysis)
	applyProviderDefaults(&cfg.Provider)
	applyMemoryDefaults(&cfg.Memory)
	applyTelemetryDefaults(&cfg.Telemetry)

	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultScheduleCron
	}
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
}

func applyMessagingDefaults(cfg *MessagingConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultMessagingBackend
	}
	if cfg.ConversationLimit == 0 {
		cfg.ConversationLimit = DefaultConversationLimit
	}
	if cfg.Archive.Driver == "" {
		cfg.Archive.Driver = DefaultArchiveDriver
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = DefaultArchivePath
	}
	if cfg.Archive.BusyTimeout == 0 {
		cfg.Archive.BusyTimeout = DefaultArchiveBusyTimeout
	}
}

func applyAnalysisDefaults(cfg *AnalysisConfig) {
	if cfg.LookbackDays == 0 {
		cfg.LookbackDays = DefaultAnalysisLookbackDays
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnalysisModel
	}
	if cfg.ResponseLanguage == "" {
		cfg.ResponseLanguage = DefaultResponseLanguage
	}
	if cfg.OperatorLabel == "" {
		cfg.OperatorLabel = DefaultOperatorLabel
	}
	if cfg.CounterpartLabel == "" {
		cfg.CounterpartLabel = DefaultCounterpartLabel
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultAnalysisRequestTimeout
	}
}

func applyProviderDefaults(cfg *ProviderConfig) {
	if cfg.Name == "" {
		cfg.Name = DefaultProviderName
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultProviderMaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = DefaultProviderRetryBackoff
	}
}

func applyMemoryDefaults(cfg *MemoryConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultMemoryBackend
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = DefaultMemoryMaxTurns
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListen
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if len(cfg.Metrics.AnalysisDurationBuckets) == 0 {
		cfg.Metrics.AnalysisDurationBuckets = DefaultAnalysisDurationBuckets
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
}
