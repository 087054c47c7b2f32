package config

import (
	"fmt"
	"sync"
)

var (
	// current holds the process-wide configuration.
	current *Config

	// currentPath is the file current was loaded from ("" for defaults).
	currentPath string

	currentMu sync.RWMutex
)

// Initialize loads configuration from path with environment overrides and
// installs it as the process-wide configuration. Unlike ReloadConfig it
// always replaces the current value, so commands may call it once each.
func Initialize(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}

	currentMu.Lock()
	current = cfg
	currentPath = path
	currentMu.Unlock()

	return nil
}

// GetConfig returns the process-wide configuration, or nil before Initialize.
// Callers must treat the returned value as read-only; a reload swaps the
// pointer rather than mutating it.
func GetConfig() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetConfig installs cfg as the process-wide configuration.
// Intended for tests.
func SetConfig(cfg *Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = cfg
}

// ReloadConfig reloads the configuration from the path given to Initialize.
// The previous configuration stays in place when loading or validation fails.
func ReloadConfig() (*Config, error) {
	currentMu.RLock()
	path := currentPath
	currentMu.RUnlock()

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	currentMu.Lock()
	current = cfg
	currentMu.Unlock()

	return cfg, nil
}
