package metrics

import (
	"mercator-hq/dialoglens/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks generative-language provider health and performance.
//
// Metrics:
//   - dialoglens_pipeline_provider_health: provider health status (1=healthy, 0=unhealthy)
//   - dialoglens_pipeline_provider_latency_seconds: completion latency
//   - dialoglens_pipeline_provider_errors_total: provider errors by type
//   - dialoglens_pipeline_provider_requests_total: completion requests
//   - dialoglens_pipeline_provider_tokens_total: tokens reported by the provider
type ProviderMetrics struct {
	health   *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	requests *prometheus.CounterVec
	tokens   *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_latency_seconds",
				Help:      "Provider completion latency in seconds",
				Buckets:   cfg.AnalysisDurationBuckets,
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_requests_total",
				Help:      "Total number of completion requests to each provider",
			},
			[]string{"provider", "model"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_tokens_total",
				Help:      "Total number of tokens reported by the provider",
			},
			[]string{"provider", "model", "type"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.latency,
		pm.errors,
		pm.requests,
		pm.tokens,
	)

	return pm
}

// UpdateHealth sets the health gauge for provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordLatency records the latency of a completion call.
func (pm *ProviderMetrics) RecordLatency(provider, model string, latencySeconds float64) {
	pm.latency.WithLabelValues(provider, model).Observe(latencySeconds)
}

// RecordError records an error from a provider.
//
// Common error types (see providers.ErrorType):
//   - "rate_limit": provider quota exceeded
//   - "timeout": attempt or request deadline exceeded
//   - "auth": invalid or missing API key
//   - "provider": transport failure or 5xx
//   - "parse": unreadable response or no candidates
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordRequest records a request to a provider.
func (pm *ProviderMetrics) RecordRequest(provider, model string) {
	pm.requests.WithLabelValues(provider, model).Inc()
}

// RecordTokens adds prompt and completion token counts.
func (pm *ProviderMetrics) RecordTokens(provider, model string, prompt, completion int) {
	if prompt > 0 {
		pm.tokens.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		pm.tokens.WithLabelValues(provider, model, "completion").Add(float64(completion))
	}
}
