package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "DIALOGLENS_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML onto a default configuration and applies defaults to
// any field the document left empty. It does not validate.
func Parse(data []byte) (*Config, error) {
	// Decoding onto defaults keeps boolean defaults that the document omits.
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention DIALOGLENS_SECTION_FIELD (e.g., DIALOGLENS_PROVIDER_API_KEY).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from defaults, which lets the
// tool run from credentials supplied purely through the environment.
//
// The loading sequence is:
// 1. Load YAML from file (or defaults)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Resolve ${secret:name} references in credentials
// 5. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := resolveSecrets(cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format DIALOGLENS_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Messaging overrides
	envString("MESSAGING_BACKEND", &cfg.Messaging.Backend)
	envInt("MESSAGING_CONVERSATION_LIMIT", &cfg.Messaging.ConversationLimit)
	envString("MESSAGING_ARCHIVE_DRIVER", &cfg.Messaging.Archive.Driver)
	envString("MESSAGING_ARCHIVE_PATH", &cfg.Messaging.Archive.Path)
	envDuration("MESSAGING_ARCHIVE_BUSY_TIMEOUT", &cfg.Messaging.Archive.BusyTimeout)

	// Analysis overrides
	envInt("ANALYSIS_LOOKBACK_DAYS", &cfg.Analysis.LookbackDays)
	envString("ANALYSIS_MODEL", &cfg.Analysis.Model)
	envString("ANALYSIS_RESPONSE_LANGUAGE", &cfg.Analysis.ResponseLanguage)
	envString("ANALYSIS_TIMEZONE", &cfg.Analysis.Timezone)
	envDuration("ANALYSIS_REQUEST_TIMEOUT", &cfg.Analysis.RequestTimeout)
	envString("ANALYSIS_INSTRUCTION_FILE", &cfg.Analysis.InstructionFile)

	// Provider overrides
	envString("PROVIDER_BASE_URL", &cfg.Provider.BaseURL)
	envString("PROVIDER_API_KEY", &cfg.Provider.APIKey)
	envDuration("PROVIDER_TIMEOUT", &cfg.Provider.Timeout)
	envInt("PROVIDER_MAX_RETRIES", &cfg.Provider.MaxRetries)
	envDuration("PROVIDER_RETRY_BACKOFF", &cfg.Provider.RetryBackoff)

	// Memory overrides
	envString("MEMORY_BACKEND", &cfg.Memory.Backend)
	envInt("MEMORY_MAX_TURNS", &cfg.Memory.MaxTurns)
	envDuration("MEMORY_IDLE_TTL", &cfg.Memory.IdleTTL)
	envString("MEMORY_REDIS_ADDR", &cfg.Memory.Redis.Addr)
	envString("MEMORY_REDIS_PASSWORD", &cfg.Memory.Redis.Password)
	envInt("MEMORY_REDIS_DB", &cfg.Memory.Redis.DB)

	// Output and schedule overrides
	envString("OUTPUT_FORMAT", &cfg.Output.Format)
	envBool("OUTPUT_SHOW_MESSAGES", &cfg.Output.ShowMessages)
	envString("SCHEDULE_CRON", &cfg.Schedule.Cron)
	envBool("SCHEDULE_WATCH_CONFIG", &cfg.Schedule.WatchConfig)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	envString("SECRETS_DIR", &cfg.Secrets.Dir)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
