package metrics

import (
	"mercator-hq/dialoglens/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// MemoryMetrics tracks conversation memory occupancy.
//
// Metrics:
//   - dialoglens_pipeline_memory_conversations: conversations with stored turns
//   - dialoglens_pipeline_memory_turns: turns stored across all conversations
type MemoryMetrics struct {
	conversations prometheus.Gauge
	turns         prometheus.Gauge
}

// NewMemoryMetrics creates and registers memory metrics.
func NewMemoryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *MemoryMetrics {
	mm := &MemoryMetrics{
		conversations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "memory_conversations",
				Help:      "Number of conversations currently held in memory",
			},
		),

		turns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "memory_turns",
				Help:      "Number of turns currently held in memory",
			},
		),
	}

	registry.MustRegister(mm.conversations, mm.turns)

	return mm
}

// Update sets both gauges.
func (mm *MemoryMetrics) Update(conversations, turns int) {
	mm.conversations.Set(float64(conversations))
	mm.turns.Set(float64(turns))
}
