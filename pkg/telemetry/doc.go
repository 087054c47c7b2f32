// Package telemetry groups the observability packages used by dialoglens.
//
//   - logging: slog handler with context fields and secret/PII redaction
//   - metrics: Prometheus collector for runs, conversations, provider and memory
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness endpoints for the schedule command
//
// The run command wires logging, metrics and tracing; the schedule command
// additionally serves metrics and health over HTTP.
package telemetry
