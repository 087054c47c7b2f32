// Package tracing provides OpenTelemetry tracing for dialoglens.
//
// # Overview
//
// A batch run produces one trace:
//
//	pipeline.run
//	└── pipeline.conversation      (one per conversation)
//	    ├── history.fetch
//	    └── analysis.analyze
//
// Spans are exported over OTLP gRPC. When tracing is disabled every span is
// a noop and costs almost nothing, so callers never check Enabled before
// starting spans.
//
// # Propagation
//
// Outgoing provider requests carry W3C Trace Context headers via Inject.
//
// # Sampling
//
// telemetry.tracing.sample_ratio selects the sampler: 1.0 traces every run,
// 0.0 none, anything between samples by trace ID. Child spans follow their
// parent's decision.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "pipeline.run")
//	defer span.End()
package tracing
