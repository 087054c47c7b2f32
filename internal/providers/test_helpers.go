package providers

import (
	"time"

	"mercator-hq/dialoglens/pkg/providers"
)

// TestConfig returns a test provider configuration pointing at baseURL.
func TestConfig(name, baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Type:                "gemini",
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		MaxRetries:          1,
		RetryBackoff:        10 * time.Millisecond,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestCompletionRequest creates a test completion request.
func TestCompletionRequest(model string, messages ...providers.Message) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:    model,
		Messages: messages,
	}
}
