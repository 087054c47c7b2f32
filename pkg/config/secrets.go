package config

import (
	"context"
	"fmt"

	"mercator-hq/dialoglens/pkg/secrets"
)

// resolveSecrets replaces ${secret:name} references in credential fields.
// Other fields are never resolved so secrets cannot leak into labels or
// paths that are logged.
func resolveSecrets(cfg *Config) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"provider.api_key", &cfg.Provider.APIKey},
		{"memory.redis.password", &cfg.Memory.Redis.Password},
	}

	var resolver *secrets.Resolver
	for _, f := range fields {
		if !secrets.HasReference(*f.value) {
			continue
		}
		if resolver == nil {
			r, err := newSecretResolver(&cfg.Secrets)
			if err != nil {
				return err
			}
			resolver = r
		}

		value, err := resolver.Resolve(context.Background(), *f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = value
	}
	return nil
}

func newSecretResolver(cfg *SecretsConfig) (*secrets.Resolver, error) {
	var providers []secrets.Provider
	if cfg.Dir != "" {
		fp, err := secrets.NewFileProvider(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("secrets.dir: %w", err)
		}
		providers = append(providers, fp)
	}
	providers = append(providers, secrets.NewEnvProvider(cfg.EnvPrefix))
	return secrets.NewResolver(nil, providers...), nil
}
