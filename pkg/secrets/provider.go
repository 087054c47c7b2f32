// Package secrets resolves ${secret:name} references in configuration
// values from environment variables or a directory of secret files.
package secrets

import "context"

// Provider retrieves secrets from one backend.
type Provider interface {
	// GetSecret retrieves a secret by name.
	GetSecret(ctx context.Context, name string) (string, error)

	// Name returns the backend name (env, file).
	Name() string

	// Supports reports whether the backend may hold name. The resolver
	// skips providers that do not.
	Supports(name string) bool
}
