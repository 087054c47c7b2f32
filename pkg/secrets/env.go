package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider loads secrets from environment variables.
//
// Secret names are upper-cased with hyphens replaced by underscores and
// prefixed: with prefix "DIALOGLENS_SECRET_", "gemini-api-key" is read
// from DIALOGLENS_SECRET_GEMINI_API_KEY.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	envVar := p.envVar(name)
	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("secret not found in environment: %s (env var: %s)", name, envVar)
	}
	return value, nil
}

func (p *EnvProvider) Name() string { return "env" }

// Supports always returns true so the environment acts as a fallback.
func (p *EnvProvider) Supports(name string) bool { return true }

func (p *EnvProvider) envVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
