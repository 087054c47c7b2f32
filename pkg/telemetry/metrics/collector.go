package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/dialoglens/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric dialoglens exports.
//
// A nil *Collector and a collector with metrics disabled are both valid
// and record nothing, so components can take one unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	pipelineMetrics *PipelineMetrics
	providerMetrics *ProviderMetrics
	memoryMetrics   *MemoryMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registered on registry. If registry is
// nil a private registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.AnalysisDurationBuckets) == 0 {
		cfg.AnalysisDurationBuckets = config.DefaultAnalysisDurationBuckets
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.pipelineMetrics = NewPipelineMetrics(cfg, registry)
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.memoryMetrics = NewMemoryMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRun records a finished batch.
//
// Parameters:
//   - status: "completed", "canceled" or "failed"
//   - duration: wall time of the batch
func (c *Collector) RecordRun(status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.pipelineMetrics.RecordRun(status, duration)
}

// RecordConversation records the outcome of one processed conversation.
func (c *Collector) RecordConversation(outcome string) {
	if !c.enabled() {
		return
	}
	c.pipelineMetrics.RecordConversation(outcome)
}

// RecordMessages adds n retrieved messages for a role.
func (c *Collector) RecordMessages(role string, n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.pipelineMetrics.RecordMessages(role, n)
}

// RecordAnalysis records one analysis call.
//
// Parameters:
//   - status: "success", "empty" or "failed"
//   - duration: time spent in the engine, memory access included
func (c *Collector) RecordAnalysis(status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.pipelineMetrics.RecordAnalysis(status, duration)
}

// RecordProviderRequest records a completion request sent to a provider.
func (c *Collector) RecordProviderRequest(provider, model string, latency time.Duration) {
	if !c.enabled() {
		return
	}

	labelSet := fmt.Sprintf("provider:%s:%s", provider, model)
	if !c.cardinalityLimiter.Allow(labelSet) {
		model = "other"
	}

	c.providerMetrics.RecordRequest(provider, model)
	c.providerMetrics.RecordLatency(provider, model, latency.Seconds())
}

// RecordProviderTokens records token usage reported by the provider.
func (c *Collector) RecordProviderTokens(provider, model string, prompt, completion int) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.RecordTokens(provider, model, prompt, completion)
}

// RecordProviderError records an error from a provider.
//
// Parameters:
//   - provider: provider name
//   - errorType: label from providers.ErrorType (e.g. "timeout", "auth")
func (c *Collector) RecordProviderError(provider, errorType string) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.RecordError(provider, errorType)
}

// UpdateProviderHealth sets the provider health gauge (1=healthy, 0=unhealthy).
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.UpdateHealth(provider, healthy)
}

// UpdateMemory sets the conversation memory gauges.
func (c *Collector) UpdateMemory(conversations, turns int) {
	if !c.enabled() {
		return
	}
	c.memoryMetrics.Update(conversations, turns)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label sets a collector
// will create.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
