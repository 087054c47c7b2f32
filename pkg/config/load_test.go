package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
messaging:
  conversation_limit: 25
  archive:
    driver: sqlite3
    path: /tmp/chats.db

analysis:
  lookback_days: 3
  model: gemini-1.5-pro
  response_language: Ukrainian
  timezone: Europe/Kyiv
  request_timeout: 45s

provider:
  api_key: test-key-123
  timeout: 30s
  max_retries: 2

memory:
  backend: redis
  max_turns: 8
  redis:
    addr: redis:6379

output:
  format: json
  show_messages: false

telemetry:
  logging:
    level: debug
    format: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Messaging.ConversationLimit != 25 {
		t.Errorf("expected conversation limit 25, got %d", cfg.Messaging.ConversationLimit)
	}
	if cfg.Messaging.Archive.Driver != "sqlite3" {
		t.Errorf("expected driver sqlite3, got %q", cfg.Messaging.Archive.Driver)
	}
	if cfg.Analysis.LookbackDays != 3 {
		t.Errorf("expected lookback 3, got %d", cfg.Analysis.LookbackDays)
	}
	if cfg.Analysis.RequestTimeout != 45*time.Second {
		t.Errorf("expected request timeout 45s, got %v", cfg.Analysis.RequestTimeout)
	}
	if cfg.Provider.APIKey != "test-key-123" {
		t.Errorf("expected API key %q, got %q", "test-key-123", cfg.Provider.APIKey)
	}
	if cfg.Provider.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Provider.Timeout)
	}
	if cfg.Memory.Backend != "redis" || cfg.Memory.Redis.Addr != "redis:6379" {
		t.Errorf("unexpected memory config: %+v", cfg.Memory)
	}
	if cfg.Output.ShowMessages {
		t.Error("expected show_messages false to survive defaults")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %q", cfg.Telemetry.Logging.Level)
	}

	// Untouched sections keep their defaults
	if cfg.Provider.BaseURL != DefaultProviderBaseURL {
		t.Errorf("expected default base URL, got %q", cfg.Provider.BaseURL)
	}
	if cfg.Schedule.Cron != DefaultScheduleCron {
		t.Errorf("expected default cron, got %q", cfg.Schedule.Cron)
	}
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("failed to load empty config: %v", err)
	}

	if cfg.Analysis.LookbackDays != DefaultAnalysisLookbackDays {
		t.Errorf("expected lookback %d, got %d", DefaultAnalysisLookbackDays, cfg.Analysis.LookbackDays)
	}
	if cfg.Messaging.ConversationLimit != DefaultConversationLimit {
		t.Errorf("expected limit %d, got %d", DefaultConversationLimit, cfg.Messaging.ConversationLimit)
	}
	if cfg.Provider.MaxRetries != DefaultProviderMaxRetries {
		t.Errorf("expected max retries %d, got %d", DefaultProviderMaxRetries, cfg.Provider.MaxRetries)
	}
	if !cfg.Output.ShowMessages {
		t.Error("expected show_messages to default to true")
	}
	if !cfg.Telemetry.Logging.RedactPII {
		t.Error("expected redact_pii to default to true")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "analysis: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
analysis:
  lookback_days: 2
provider:
  api_key: from-file
`)

	t.Setenv("DIALOGLENS_PROVIDER_API_KEY", "from-env")
	t.Setenv("DIALOGLENS_ANALYSIS_LOOKBACK_DAYS", "7")
	t.Setenv("DIALOGLENS_PROVIDER_TIMEOUT", "15s")
	t.Setenv("DIALOGLENS_OUTPUT_SHOW_MESSAGES", "false")
	t.Setenv("DIALOGLENS_MEMORY_MAX_TURNS", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Provider.APIKey != "from-env" {
		t.Errorf("expected env API key, got %q", cfg.Provider.APIKey)
	}
	if cfg.Analysis.LookbackDays != 7 {
		t.Errorf("expected lookback 7, got %d", cfg.Analysis.LookbackDays)
	}
	if cfg.Provider.Timeout != 15*time.Second {
		t.Errorf("expected timeout 15s, got %v", cfg.Provider.Timeout)
	}
	if cfg.Output.ShowMessages {
		t.Error("expected show_messages overridden to false")
	}
	if cfg.Memory.MaxTurns != DefaultMemoryMaxTurns {
		t.Errorf("malformed override should be ignored, got %d", cfg.Memory.MaxTurns)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("DIALOGLENS_PROVIDER_API_KEY", "env-only")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if cfg.Provider.APIKey != "env-only" {
		t.Errorf("expected env API key, got %q", cfg.Provider.APIKey)
	}
	if cfg.Analysis.Model != DefaultAnalysisModel {
		t.Errorf("expected default model, got %q", cfg.Analysis.Model)
	}
}

func TestInitializeAndReload(t *testing.T) {
	path := writeConfig(t, "analysis:\n  lookback_days: 2\n")

	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if got := GetConfig().Analysis.LookbackDays; got != 2 {
		t.Fatalf("expected lookback 2, got %d", got)
	}

	if err := os.WriteFile(path, []byte("analysis:\n  lookback_days: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReloadConfig()
	if err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	if cfg.Analysis.LookbackDays != 5 || GetConfig().Analysis.LookbackDays != 5 {
		t.Errorf("expected reloaded lookback 5, got %d", GetConfig().Analysis.LookbackDays)
	}

	// An invalid edit leaves the previous configuration in place
	if err := os.WriteFile(path, []byte("analysis:\n  lookback_days: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(); err == nil {
		t.Fatal("expected reload of invalid config to fail")
	}
	if got := GetConfig().Analysis.LookbackDays; got != 5 {
		t.Errorf("expected previous config to remain, got lookback %d", got)
	}
}
