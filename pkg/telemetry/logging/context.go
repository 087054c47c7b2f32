package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	// RunIDKey is the context key for the batch run ID.
	RunIDKey contextKey = "run_id"

	// ConversationIDKey is the context key for the conversation being processed.
	ConversationIDKey contextKey = "conversation_id"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// RunID retrieves the run ID from the context.
func RunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithConversationID adds a conversation ID to the context.
func WithConversationID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ConversationIDKey, id)
}

// ConversationID retrieves the conversation ID from the context.
func ConversationID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ConversationIDKey).(int64)
	return id, ok
}

// contextAttrs returns the log attributes carried by ctx: run and
// conversation IDs plus the active trace and span.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if runID := RunID(ctx); runID != "" {
		attrs = append(attrs, slog.String(string(RunIDKey), runID))
	}
	if id, ok := ConversationID(ctx); ok {
		attrs = append(attrs, slog.Int64(string(ConversationIDKey), id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}
