package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. Custom keys use the "dialoglens.*" namespace.
const (
	AttrRunID          = "dialoglens.run_id"
	AttrConversationID = "dialoglens.conversation_id"
	AttrMessageCount   = "dialoglens.messages"
	AttrOutcome        = "dialoglens.outcome"
	AttrAnalysisStatus = "dialoglens.analysis.status"
	AttrMemoryTurns    = "dialoglens.memory.turns"

	AttrProvider = "dialoglens.provider"
	AttrModel    = "dialoglens.model"

	AttrTokensPrompt     = "dialoglens.tokens.prompt"
	AttrTokensCompletion = "dialoglens.tokens.completion"
	AttrTokensTotal      = "dialoglens.tokens.total"

	AttrErrorType    = "dialoglens.error.type"
	AttrErrorMessage = "error.message"
)

// SetConversationAttributes tags a span with the conversation being processed.
func SetConversationAttributes(span trace.Span, runID string, conversationID int64) {
	span.SetAttributes(
		attribute.String(AttrRunID, runID),
		attribute.Int64(AttrConversationID, conversationID),
	)
}

// SetProviderAttributes sets provider-related attributes on a span.
func SetProviderAttributes(span trace.Span, provider, model string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	)
}

// SetTokenAttributes sets token count attributes on a span.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens int) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Int(AttrTokensTotal, promptTokens+completionTokens),
	)
}

// SetErrorAttributes records err with its classification and marks the span failed.
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a named event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
