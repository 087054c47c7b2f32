package providers

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/dialoglens/pkg/providers"
)

// MockProvider is an in-memory implementation of providers.Provider.
// Replies are served from a script, one per call; requests are recorded.
type MockProvider struct {
	name string

	mu       sync.Mutex
	script   []MockReply
	requests []*providers.CompletionRequest
	healthy  bool
	closed   bool
}

// MockReply is one scripted outcome of SendCompletion.
type MockReply struct {
	Content string
	Err     error

	// Block waits for the request context to end before returning its error.
	Block bool
}

// NewMockProvider creates a new mock provider with the given name and script.
// Once the script is exhausted every call returns "mock response".
func NewMockProvider(name string, script ...MockReply) *MockProvider {
	return &MockProvider{
		name:    name,
		script:  script,
		healthy: true,
	}
}

// SetHealthy sets the health status of the mock provider.
func (m *MockProvider) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// Requests returns the requests received so far.
func (m *MockProvider) Requests() []*providers.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*providers.CompletionRequest(nil), m.requests...)
}

// CallCount returns the number of SendCompletion calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// SendCompletion records req and returns the next scripted reply.
func (m *MockProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	m.mu.Lock()
	clone := *req
	clone.Messages = append([]providers.Message(nil), req.Messages...)
	m.requests = append(m.requests, &clone)

	reply := MockReply{Content: "mock response"}
	if len(m.script) > 0 {
		reply = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if reply.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &providers.CompletionResponse{
		Model:        req.Model,
		Content:      reply.Content,
		FinishReason: providers.FinishReasonStop,
	}, nil
}

// HealthCheck reports the configured health.
func (m *MockProvider) HealthCheck(ctx context.Context) error {
	if !m.IsHealthy() {
		return fmt.Errorf("provider %s is unhealthy", m.name)
	}
	return nil
}

// GetName returns the provider name.
func (m *MockProvider) GetName() string {
	return m.name
}

// GetType returns the provider type.
func (m *MockProvider) GetType() string {
	return "mock"
}

// GetConfig returns the provider configuration.
func (m *MockProvider) GetConfig() providers.ProviderConfig {
	return providers.ProviderConfig{Name: m.name, Type: "mock"}
}

// IsHealthy returns the current health status.
func (m *MockProvider) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// GetHealth returns detailed health information.
func (m *MockProvider) GetHealth() providers.ProviderHealth {
	return providers.ProviderHealth{IsHealthy: m.IsHealthy()}
}

// Close marks the provider closed.
func (m *MockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
