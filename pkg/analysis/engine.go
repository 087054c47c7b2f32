package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/dialoglens/pkg/memory"
	"mercator-hq/dialoglens/pkg/providers"
	"mercator-hq/dialoglens/pkg/telemetry/logging"
	"mercator-hq/dialoglens/pkg/telemetry/metrics"
	"mercator-hq/dialoglens/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// InputPrefix precedes the transcript in every analysis request.
const InputPrefix = "Analyze the following messages between operator and counterpart:\n\n"

// Options configures an Engine.
type Options struct {
	// Model is the model name sent with every request. Required.
	Model string

	// Instruction is the rendered system instruction. Empty means the
	// built-in instruction in English.
	Instruction string

	// RequestTimeout bounds one Analyze call including provider retries.
	// Zero disables the bound.
	RequestTimeout time.Duration

	Temperature     float64
	MaxOutputTokens int

	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
}

// Engine produces analysis reports and keeps per-conversation memory.
// Analyze never returns an error; failures surface as StatusFailed.
type Engine struct {
	provider providers.Provider
	memory   memory.Store

	model           string
	instruction     string
	requestTimeout  time.Duration
	temperature     float64
	maxOutputTokens int

	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
}

// NewEngine creates an engine backed by provider and store.
func NewEngine(provider providers.Provider, store memory.Store, opts Options) (*Engine, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if store == nil {
		return nil, errors.New("memory store is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}
	if opts.RequestTimeout < 0 {
		return nil, fmt.Errorf("request timeout must not be negative, got %v", opts.RequestTimeout)
	}

	instruction := opts.Instruction
	if instruction == "" {
		var err error
		instruction, err = RenderInstruction(DefaultInstructionTemplate, InstructionData{Language: "English"})
		if err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}

	return &Engine{
		provider:        provider,
		memory:          store,
		model:           opts.Model,
		instruction:     instruction,
		requestTimeout:  opts.RequestTimeout,
		temperature:     opts.Temperature,
		maxOutputTokens: opts.MaxOutputTokens,
		logger:          logger.With("component", "analysis.engine"),
		metrics:         opts.Metrics,
		tracer:          tracer,
	}, nil
}

// Instruction returns the system instruction sent with every request.
func (e *Engine) Instruction() string {
	return e.instruction
}

// Analyze sends the instruction, the key's stored turns and the transcript
// to the model. On success the input and the trimmed reply are appended to
// memory. On failure memory is left unchanged and the result carries
// FallbackText.
func (e *Engine) Analyze(ctx context.Context, key, transcript string) Result {
	started := time.Now()

	ctx, span := e.tracer.Start(ctx, "analysis.analyze")
	defer span.End()
	tracing.SetProviderAttributes(span, e.provider.GetName(), e.model)

	result := e.analyze(ctx, key, transcript, started)

	span.SetAttributes(attribute.String(tracing.AttrAnalysisStatus, string(result.Status)))
	if result.Err != nil {
		tracing.SetErrorAttributes(span, result.Err, providers.ErrorType(result.Err))
	}
	e.metrics.RecordAnalysis(string(result.Status), result.Duration)

	return result
}

func (e *Engine) analyze(ctx context.Context, key, transcript string, started time.Time) Result {
	history, err := e.memory.Turns(ctx, key)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to read conversation memory", "key", key, "error", err)
		return failed(fmt.Errorf("read memory: %w", err), started)
	}

	input := memory.Turn{Role: memory.RoleInput, Content: InputPrefix + transcript}
	msgs, err := buildMessages(e.instruction, history, input)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to build request", "key", key, "error", err)
		return failed(err, started)
	}

	req := &providers.CompletionRequest{
		Model:       e.model,
		Messages:    msgs,
		Temperature: e.temperature,
		MaxTokens:   e.maxOutputTokens,
		Metadata: map[string]string{
			"memory_key": key,
			"run_id":     logging.RunID(ctx),
		},
	}

	callCtx := ctx
	if e.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.requestTimeout)
		defer cancel()
	}

	name := e.provider.GetName()
	callStart := time.Now()
	resp, err := e.provider.SendCompletion(callCtx, req)
	latency := time.Since(callStart)

	e.metrics.RecordProviderRequest(name, e.model, latency)
	e.metrics.UpdateProviderHealth(name, e.provider.IsHealthy())

	if err != nil {
		e.metrics.RecordProviderError(name, providers.ErrorType(err))
		e.logger.WarnContext(ctx, "analysis request failed",
			"key", key,
			"provider", name,
			"error_type", providers.ErrorType(err),
			"latency_ms", latency.Milliseconds(),
			"error", err,
		)
		return failed(err, started)
	}
	if resp == nil {
		err := errors.New("provider returned no response")
		e.logger.WarnContext(ctx, "analysis request failed", "key", key, "provider", name, "error", err)
		return failed(err, started)
	}

	e.metrics.RecordProviderTokens(name, e.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	tracing.SetTokenAttributes(tracing.SpanFromContext(ctx), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	text := strings.TrimSpace(resp.Content)
	output := memory.Turn{Role: memory.RoleOutput, Content: text}

	// The reply is already paid for, so a write failure does not discard it.
	if err := e.memory.Append(ctx, key, input, output); err != nil {
		e.logger.WarnContext(ctx, "failed to store analysis turns", "key", key, "error", err)
	}

	status := StatusSuccess
	if text == "" {
		status = StatusEmpty
	}

	e.logger.DebugContext(ctx, "analysis complete",
		"key", key,
		"status", status,
		"history_turns", len(history),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"latency_ms", latency.Milliseconds(),
	)

	return Result{
		Status:   status,
		Text:     text,
		Usage:    resp.Usage,
		Duration: time.Since(started),
	}
}

// Clear forgets the key's turns. Clearing an unknown key is not an error.
func (e *Engine) Clear(ctx context.Context, key string) error {
	if err := e.memory.Clear(ctx, key); err != nil {
		return fmt.Errorf("failed to clear memory for %s: %w", key, err)
	}
	return nil
}

// ClearAll forgets every key.
func (e *Engine) ClearAll(ctx context.Context) error {
	if err := e.memory.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}
	e.metrics.UpdateMemory(0, 0)
	return nil
}

// MemoryStatus reports what memory currently holds and refreshes the
// memory gauges.
func (e *Engine) MemoryStatus(ctx context.Context) (memory.Status, error) {
	st, err := e.memory.Status(ctx)
	if err != nil {
		return memory.Status{}, fmt.Errorf("failed to read memory status: %w", err)
	}
	e.metrics.UpdateMemory(st.ConversationCount, st.TotalTurns)
	return st, nil
}

// Close releases the memory store.
func (e *Engine) Close() error {
	return e.memory.Close()
}
