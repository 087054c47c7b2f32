package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/dialoglens/pkg/analysis"
	"mercator-hq/dialoglens/pkg/history"
	"mercator-hq/dialoglens/pkg/memory"
	"mercator-hq/dialoglens/pkg/messaging"
	"mercator-hq/dialoglens/pkg/telemetry/logging"
	"mercator-hq/dialoglens/pkg/telemetry/metrics"
	"mercator-hq/dialoglens/pkg/telemetry/tracing"
)

// Analyzer produces reports and owns per-conversation memory.
// *analysis.Engine implements it.
type Analyzer interface {
	Analyze(ctx context.Context, key, transcript string) analysis.Result
	Clear(ctx context.Context, key string) error
	MemoryStatus(ctx context.Context) (memory.Status, error)
}

// Presenter receives the batch as it progresses. It is the only place
// outcomes are turned into output.
type Presenter interface {
	Begin(ctx context.Context, summary *Summary, conversations []messaging.Conversation) error
	Conversation(ctx context.Context, outcome *Outcome) error
	End(ctx context.Context, summary *Summary) error
}

// Options configures a Runner.
type Options struct {
	// LookbackDays is the window size. Default: 1.
	LookbackDays int

	// ConversationLimit caps the conversations enumerated. Default: 10.
	ConversationLimit int

	// Transcript controls transcript labels and timezone.
	Transcript history.TranscriptOptions

	// Now overrides the clock used for windows.
	Now func() time.Time

	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
}

// Runner executes one batch: connect, enumerate, analyze each
// conversation in turn, disconnect.
type Runner struct {
	session   messaging.Session
	history   *history.Store
	analyzer  Analyzer
	presenter Presenter

	lookbackDays int
	limit        int
	transcript   history.TranscriptOptions
	now          func() time.Time

	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
}

// NewRunner creates a runner.
func NewRunner(session messaging.Session, analyzer Analyzer, presenter Presenter, opts Options) (*Runner, error) {
	if session == nil {
		return nil, errors.New("messaging session is required")
	}
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if presenter == nil {
		return nil, errors.New("presenter is required")
	}

	if opts.LookbackDays == 0 {
		opts.LookbackDays = 1
	}
	if opts.LookbackDays < 0 {
		return nil, fmt.Errorf("lookback days must be positive, got %d", opts.LookbackDays)
	}
	if opts.ConversationLimit == 0 {
		opts.ConversationLimit = 10
	}
	if opts.ConversationLimit < 0 {
		return nil, fmt.Errorf("conversation limit must be positive, got %d", opts.ConversationLimit)
	}
	if opts.Transcript.OperatorLabel == "" && opts.Transcript.CounterpartLabel == "" {
		opts.Transcript = history.DefaultTranscriptOptions()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}

	return &Runner{
		session:      session,
		history:      history.NewStore(session, history.WithClock(opts.Now), history.WithLogger(logger)),
		analyzer:     analyzer,
		presenter:    presenter,
		lookbackDays: opts.LookbackDays,
		limit:        opts.ConversationLimit,
		transcript:   opts.Transcript,
		now:          opts.Now,
		logger:       logger.With("component", "pipeline.runner"),
		metrics:      opts.Metrics,
		tracer:       tracer,
	}, nil
}

// Run executes one batch.
//
// Connect and enumeration failures are fatal and returned. Failures while
// processing a conversation are contained in its Outcome. The session is
// disconnected on every path. If ctx ends mid-batch the loop stops between
// conversations and the partial summary is returned with ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := newSummary(uuid.NewString(), r.now())

	ctx = logging.WithRunID(ctx, summary.RunID)
	ctx, span := r.tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrRunID, summary.RunID))

	r.logger.InfoContext(ctx, "run started",
		"lookback_days", r.lookbackDays,
		"conversation_limit", r.limit,
	)

	err := r.run(ctx, summary)
	summary.FinishedAt = r.now()

	status := "completed"
	switch {
	case summary.Canceled:
		status = "canceled"
	case err != nil:
		status = "failed"
		tracing.SetError(span, err)
	}
	r.metrics.RecordRun(status, summary.Duration())

	attrs := []any{
		"status", status,
		"conversations", summary.Conversations,
		"duration_ms", summary.Duration().Milliseconds(),
	}
	for _, k := range Kinds {
		attrs = append(attrs, string(k), summary.Count(k))
	}
	if err != nil {
		attrs = append(attrs, "error", err)
		r.logger.ErrorContext(ctx, "run ended", attrs...)
	} else {
		r.logger.InfoContext(ctx, "run finished", attrs...)
	}

	return summary, err
}

func (r *Runner) run(ctx context.Context, summary *Summary) error {
	if err := r.session.Connect(ctx); err != nil {
		if derr := r.session.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			r.logger.WarnContext(ctx, "disconnect after failed connect", "error", derr)
		}
		return fmt.Errorf("failed to connect to messaging backend: %w", err)
	}
	defer func() {
		if err := r.session.Disconnect(context.WithoutCancel(ctx)); err != nil {
			r.logger.WarnContext(ctx, "failed to disconnect from messaging backend", "error", err)
		}
	}()

	convs, err := r.session.ListRecentConversations(ctx, r.limit)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	summary.Conversations = len(convs)

	if err := r.presenter.Begin(ctx, summary, convs); err != nil {
		r.logger.WarnContext(ctx, "failed to render run header", "error", err)
	}

	for i, conv := range convs {
		if ctx.Err() != nil {
			summary.Canceled = true
			break
		}

		outcome := r.process(ctx, conv)
		outcome.Index = i + 1
		outcome.Total = len(convs)
		summary.Counts[outcome.Kind]++

		if err := r.presenter.Conversation(ctx, outcome); err != nil {
			r.logger.WarnContext(ctx, "failed to render conversation",
				"conversation_id", conv.ID,
				"error", err,
			)
		}
	}

	if st, err := r.analyzer.MemoryStatus(context.WithoutCancel(ctx)); err != nil {
		r.logger.WarnContext(ctx, "failed to read memory status", "error", err)
	} else if st.ConversationCount > 0 {
		r.logger.WarnContext(ctx, "memory still holds conversations after run",
			"conversations", st.ConversationCount,
			"turns", st.TotalTurns,
		)
	}

	if err := r.presenter.End(ctx, summary); err != nil {
		r.logger.WarnContext(ctx, "failed to render summary", "error", err)
	}

	if summary.Canceled {
		return ctx.Err()
	}
	return nil
}

// process handles one conversation. Memory for the conversation is
// cleared on every path.
func (r *Runner) process(ctx context.Context, conv messaging.Conversation) *Outcome {
	ctx = logging.WithConversationID(ctx, conv.ID)
	ctx, span := r.tracer.Start(ctx, "pipeline.conversation")
	defer span.End()
	tracing.SetConversationAttributes(span, logging.RunID(ctx), conv.ID)

	key := memory.Key(conv.ID)
	defer func() {
		if err := r.analyzer.Clear(context.WithoutCancel(ctx), key); err != nil {
			r.logger.WarnContext(ctx, "failed to clear conversation memory", "key", key, "error", err)
		}
	}()

	outcome := &Outcome{Conversation: conv}
	defer func() {
		r.metrics.RecordConversation(string(outcome.Kind))
		span.SetAttributes(
			attribute.String(tracing.AttrOutcome, string(outcome.Kind)),
			attribute.Int(tracing.AttrMessageCount, len(outcome.Messages)),
		)
	}()

	msgs, err := r.history.History(ctx, conv.ID, r.lookbackDays)
	if err != nil {
		outcome.Kind = OutcomeFetchFailed
		outcome.Err = err
		tracing.SetError(span, err)
		r.logger.ErrorContext(ctx, "failed to fetch conversation window", "error", err)
		return outcome
	}

	outcome.Messages = msgs
	outcome.Stats = history.ComputeStats(msgs)
	r.metrics.RecordMessages(string(history.RoleOperator), outcome.Stats.Operator)
	r.metrics.RecordMessages(string(history.RoleCounterpart), outcome.Stats.Counterpart)

	if len(msgs) == 0 {
		outcome.Kind = OutcomeNoMessages
		r.logger.InfoContext(ctx, "no messages in window")
		return outcome
	}

	outcome.Transcript = history.FormatTranscript(msgs, r.transcript)
	outcome.Analysis = r.analyzer.Analyze(ctx, key, outcome.Transcript)

	switch outcome.Analysis.Status {
	case analysis.StatusSuccess:
		outcome.Kind = OutcomeAnalyzed
	default:
		outcome.Kind = OutcomeUnavailable
		outcome.Err = outcome.Analysis.Err
	}

	r.logger.InfoContext(ctx, "conversation processed",
		"messages", len(msgs),
		"outcome", outcome.Kind,
		"analysis_status", outcome.Analysis.Status,
		"analysis_ms", outcome.Analysis.Duration.Milliseconds(),
	)
	return outcome
}
