package providers

import (
	"context"
	"time"
)

// DefaultHealthCheckInterval is used when ProviderConfig.HealthCheckInterval is zero.
const DefaultHealthCheckInterval = 5 * time.Minute

// StartHealthChecker starts a background goroutine that periodically checks
// the provider's health. The schedule command runs it so the provider_health
// gauge reflects reachability between batches.
//
// The health checker runs until the provider is closed or the context is cancelled.
// It backs off exponentially while the provider is unhealthy. Calling it a
// second time has no effect.
func (p *HTTPProvider) StartHealthChecker(ctx context.Context) {
	p.checkerMu.Lock()
	defer p.checkerMu.Unlock()

	if p.stopHealthCheck != nil {
		return
	}
	p.stopHealthCheck = make(chan struct{})
	p.healthCheckStopped = make(chan struct{})

	go p.runHealthChecker(ctx, p.stopHealthCheck, p.healthCheckStopped)
}

// runHealthChecker is the main health checking loop.
func (p *HTTPProvider) runHealthChecker(ctx context.Context, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	interval := p.config.HealthCheckInterval
	if interval == 0 {
		interval = DefaultHealthCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("health checker started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("health checker stopped (context cancelled)")
			return

		case <-stop:
			p.logger.Debug("health checker stopped (provider closed)")
			return

		case <-ticker.C:
			p.performHealthCheck(ctx)

			if !p.IsHealthy() {
				health := p.GetHealth()
				next := calculateBackoff(health.ConsecutiveFailures, interval)
				ticker.Reset(next)

				p.logger.Debug("health check backoff",
					"consecutive_failures", health.ConsecutiveFailures,
					"next_check_in", next,
				)
			} else {
				ticker.Reset(interval)
			}
		}
	}
}

// performHealthCheck executes a single health check.
func (p *HTTPProvider) performHealthCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	wasHealthy := p.IsHealthy()

	start := time.Now()
	err := p.healthCheck(checkCtx)
	latency := time.Since(start)

	if err != nil {
		p.updateHealth(false, err)
		p.logger.Error("health check failed", "error", err, "latency", latency)
		return
	}

	p.updateHealth(true, nil)
	p.logger.Debug("health check passed", "latency", latency)
	if !wasHealthy {
		p.logger.Info("provider marked healthy")
	}
}

// defaultHealthCheck issues a GET against the base URL.
func (p *HTTPProvider) defaultHealthCheck(ctx context.Context) error {
	resp, err := p.DoRequest(ctx, "GET", p.config.BaseURL, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// calculateBackoff calculates the backoff interval based on consecutive failures.
// It uses exponential backoff capped at 10x the base interval and one hour.
func calculateBackoff(consecutiveFailures int, baseInterval time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	multiplier := 10
	if consecutiveFailures < 4 {
		multiplier = 1 << uint(consecutiveFailures)
	}

	backoff := baseInterval * time.Duration(multiplier)
	if backoff > time.Hour {
		backoff = time.Hour
	}

	return backoff
}

// HealthCheck performs a synchronous health check and records the result.
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	err := p.healthCheck(ctx)
	p.updateHealth(err == nil, err)
	return err
}
