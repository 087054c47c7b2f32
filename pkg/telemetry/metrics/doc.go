// Package metrics provides Prometheus metrics collection for dialoglens.
//
// # Metrics Categories
//
//   - Pipeline: batch runs, conversations by outcome, messages by role,
//     analysis duration by status
//   - Provider: request count, latency, errors by type, tokens, health
//   - Memory: conversations and turns currently held
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordConversation("analyzed")
//	collector.RecordAnalysis("success", 2*time.Second)
//	collector.RecordProviderError("gemini", "timeout")
//	collector.UpdateProviderHealth("gemini", true)
//
// Every collector uses its own registry. The schedule command serves it
// over HTTP with Handler; the run command records into it and exits.
//
// # Prometheus Endpoint
//
//	# HELP dialoglens_pipeline_conversations_processed_total Total number of conversations processed by outcome
//	# TYPE dialoglens_pipeline_conversations_processed_total counter
//	dialoglens_pipeline_conversations_processed_total{outcome="analyzed"} 7
//
// # Cardinality Management
//
// Model labels beyond 1,000 provider/model combinations are folded into
// "other".
package metrics
