package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestHealth_CircuitBreaker verifies that 3 consecutive failures mark provider unhealthy
func TestHealth_CircuitBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 0)

	if !provider.IsHealthy() {
		t.Error("expected provider to start healthy")
	}

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, _ = provider.DoRequest(ctx, "GET", server.URL, nil, nil)

		health := provider.GetHealth()
		if health.ConsecutiveFailures != i {
			t.Errorf("expected %d consecutive failures, got %d", i, health.ConsecutiveFailures)
		}
		if i < 3 && !provider.IsHealthy() {
			t.Errorf("expected provider to remain healthy after %d failures", i)
		}
	}

	if provider.IsHealthy() {
		t.Error("expected provider to be unhealthy after 3 failures")
	}
	if provider.GetHealth().LastError == nil {
		t.Error("expected last error to be recorded")
	}
}

func TestHealth_Recovery(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = provider.DoRequest(ctx, "GET", server.URL, nil, nil)
	}
	if provider.IsHealthy() {
		t.Fatal("expected provider to be unhealthy")
	}

	failing.Store(false)
	resp, err := provider.DoRequest(ctx, "GET", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if !provider.IsHealthy() {
		t.Error("expected provider to recover after a successful request")
	}
	if provider.GetHealth().ConsecutiveFailures != 0 {
		t.Error("expected consecutive failures to reset")
	}
}

func TestHealth_CustomProbe(t *testing.T) {
	provider := newTestProvider("http://127.0.0.1:1", 0)

	probeErr := errors.New("probe failed")
	provider.SetHealthCheck(func(ctx context.Context) error { return probeErr })

	if err := provider.HealthCheck(context.Background()); !errors.Is(err, probeErr) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if provider.GetHealth().ConsecutiveFailures != 1 {
		t.Error("expected HealthCheck to record the failure")
	}

	provider.SetHealthCheck(func(ctx context.Context) error { return nil })
	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.GetHealth().ConsecutiveFailures != 0 {
		t.Error("expected success to reset failures")
	}
}

func TestHealth_PeriodicChecks(t *testing.T) {
	var checks int32
	provider := NewHTTPProvider(ProviderConfig{
		Name:                "test-provider",
		Timeout:             time.Second,
		HealthCheckInterval: 20 * time.Millisecond,
	})
	provider.SetHealthCheck(func(ctx context.Context) error {
		atomic.AddInt32(&checks, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider.StartHealthChecker(ctx)
	provider.StartHealthChecker(ctx) // second call is a no-op

	time.Sleep(150 * time.Millisecond)
	if err := provider.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := atomic.LoadInt32(&checks); got < 2 {
		t.Errorf("expected at least 2 periodic checks, got %d", got)
	}

	// No further checks after Close
	after := atomic.LoadInt32(&checks)
	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&checks) != after {
		t.Error("health checker kept running after Close")
	}
}

func TestHealth_ConcurrentAccess(t *testing.T) {
	provider := newTestProvider("http://127.0.0.1:1", 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			provider.updateHealth(i%2 == 0, errors.New("x"))
			provider.recordRequest(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = provider.IsHealthy()
			_ = provider.GetHealth()
		}()
	}
	wg.Wait()

	if got := provider.GetHealth().TotalRequests; got != 20 {
		t.Errorf("expected 20 requests recorded, got %d", got)
	}
}

func TestCalculateBackoff(t *testing.T) {
	base := time.Minute
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, time.Minute},
		{1, 2 * time.Minute},
		{2, 4 * time.Minute},
		{3, 8 * time.Minute},
		{4, 10 * time.Minute},
		{50, 10 * time.Minute},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.failures, base); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}

	if got := calculateBackoff(5, 10*time.Minute); got != time.Hour {
		t.Errorf("expected cap of one hour, got %v", got)
	}
}
