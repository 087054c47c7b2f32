package report

import (
	"context"
	"io"
	"time"

	"mercator-hq/dialoglens/pkg/analysis"
	"mercator-hq/dialoglens/pkg/memory"
	"mercator-hq/dialoglens/pkg/messaging"
)

type emptySession struct{}

func (emptySession) Connect(ctx context.Context) error    { return nil }
func (emptySession) Disconnect(ctx context.Context) error { return nil }

func (emptySession) ListRecentConversations(ctx context.Context, limit int) ([]messaging.Conversation, error) {
	return nil, nil
}

func (emptySession) Messages(ctx context.Context, id int64, since time.Time) (messaging.Iterator, error) {
	return emptyIterator{}, nil
}

type emptyIterator struct{}

func (emptyIterator) Next(ctx context.Context) (messaging.Message, error) {
	return messaging.Message{}, io.EOF
}

func (emptyIterator) Close() error { return nil }

type noopAnalyzer struct{}

func (noopAnalyzer) Analyze(ctx context.Context, key, transcript string) analysis.Result {
	return analysis.Result{Status: analysis.StatusSuccess, Text: "ok"}
}

func (noopAnalyzer) Clear(ctx context.Context, key string) error { return nil }

func (noopAnalyzer) MemoryStatus(ctx context.Context) (memory.Status, error) {
	return memory.Status{}, nil
}
