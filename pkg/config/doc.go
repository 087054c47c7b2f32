// Package config provides configuration management for dialoglens.
//
// Configuration is read from a YAML file, filled with defaults, overridden
// from the environment, and validated before use.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("config.yaml")                // file only
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml") // file + env
//	cfg, err := config.LoadConfigWithEnvOverrides("")            // defaults + env
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention DIALOGLENS_SECTION_FIELD:
//
//   - DIALOGLENS_PROVIDER_API_KEY overrides provider.api_key
//   - DIALOGLENS_ANALYSIS_LOOKBACK_DAYS overrides analysis.lookback_days
//   - DIALOGLENS_MEMORY_BACKEND overrides memory.backend
//   - DIALOGLENS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Credentials should always come from the environment.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Process-wide Configuration
//
// Commands call Initialize once and read the result with GetConfig.
// The schedule command additionally runs a Watcher, which swaps in a
// freshly loaded configuration whenever the file changes; each batch
// reads GetConfig at its start, so edits apply from the next run.
//
// Example Configuration
//
//	messaging:
//	  conversation_limit: 10
//	  archive:
//	    path: data/archive.db
//
//	analysis:
//	  lookback_days: 1
//	  model: gemini-2.0-flash
//	  response_language: English
//
//	provider:
//	  timeout: 60s
//	  max_retries: 1
//
//	memory:
//	  backend: local
//	  max_turns: 20
//
//	schedule:
//	  cron: "0 9 * * 1-5"
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
package config
