package metrics

import (
	"time"

	"mercator-hq/dialoglens/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks batch runs and per-conversation processing.
//
// Metrics:
//   - dialoglens_pipeline_runs_total: batches by final status
//   - dialoglens_pipeline_run_duration_seconds: batch wall time
//   - dialoglens_pipeline_conversations_processed_total: conversations by outcome
//   - dialoglens_pipeline_messages_retrieved_total: window messages by role
//   - dialoglens_pipeline_analysis_duration_seconds: analysis calls by status
type PipelineMetrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	processed    *prometheus.CounterVec
	messages     *prometheus.CounterVec
	analysisTime *prometheus.HistogramVec
}

// NewPipelineMetrics creates and registers pipeline metrics.
func NewPipelineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of batch runs by status",
			},
			[]string{"status"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of batch runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
			},
		),

		processed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "conversations_processed_total",
				Help:      "Total number of conversations processed by outcome",
			},
			[]string{"outcome"},
		),

		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "messages_retrieved_total",
				Help:      "Total number of text messages retrieved by role",
			},
			[]string{"role"},
		),

		analysisTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of analysis calls in seconds",
				Buckets:   cfg.AnalysisDurationBuckets,
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		pm.runsTotal,
		pm.runDuration,
		pm.processed,
		pm.messages,
		pm.analysisTime,
	)

	return pm
}

// RecordRun records a finished batch.
func (pm *PipelineMetrics) RecordRun(status string, duration time.Duration) {
	pm.runsTotal.WithLabelValues(status).Inc()
	pm.runDuration.Observe(duration.Seconds())
}

// RecordConversation increments the processed counter for outcome.
func (pm *PipelineMetrics) RecordConversation(outcome string) {
	pm.processed.WithLabelValues(outcome).Inc()
}

// RecordMessages adds n messages for role.
func (pm *PipelineMetrics) RecordMessages(role string, n int) {
	pm.messages.WithLabelValues(role).Add(float64(n))
}

// RecordAnalysis observes one analysis call.
func (pm *PipelineMetrics) RecordAnalysis(status string, duration time.Duration) {
	pm.analysisTime.WithLabelValues(status).Observe(duration.Seconds())
}
