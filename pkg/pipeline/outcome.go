package pipeline

import (
	"time"

	"mercator-hq/dialoglens/pkg/analysis"
	"mercator-hq/dialoglens/pkg/history"
	"mercator-hq/dialoglens/pkg/messaging"
)

// Kind classifies how a conversation was handled.
type Kind string

const (
	// OutcomeAnalyzed means a non-blank report was produced.
	OutcomeAnalyzed Kind = "analyzed"

	// OutcomeNoMessages means the window held no text messages. Analysis
	// was not attempted.
	OutcomeNoMessages Kind = "no_messages"

	// OutcomeUnavailable means analysis failed or returned a blank report.
	OutcomeUnavailable Kind = "unavailable"

	// OutcomeFetchFailed means the window could not be retrieved.
	OutcomeFetchFailed Kind = "fetch_failed"
)

// Kinds lists every outcome kind in presentation order.
var Kinds = []Kind{OutcomeAnalyzed, OutcomeNoMessages, OutcomeUnavailable, OutcomeFetchFailed}

// Outcome is the result of processing one conversation.
type Outcome struct {
	// Index is the 1-based position of the conversation in the batch.
	Index int
	Total int

	Conversation messaging.Conversation
	Kind         Kind

	Messages   []history.Message
	Stats      history.Stats
	Transcript string

	// Analysis is zero unless analysis was attempted.
	Analysis analysis.Result

	// Err is the fetch error for OutcomeFetchFailed, or the analysis
	// error for a failed OutcomeUnavailable.
	Err error
}

// Summary describes a finished batch.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Conversations is the number of conversations enumerated.
	Conversations int

	// Counts holds the number of outcomes per kind.
	Counts map[Kind]int

	// Canceled is set when the context ended before every conversation
	// was processed.
	Canceled bool
}

func newSummary(runID string, started time.Time) *Summary {
	return &Summary{
		RunID:     runID,
		StartedAt: started,
		Counts:    make(map[Kind]int, len(Kinds)),
	}
}

// Count returns the number of outcomes of kind k.
func (s *Summary) Count(k Kind) int {
	if s == nil {
		return 0
	}
	return s.Counts[k]
}

// Processed returns the number of conversations that reached an outcome.
func (s *Summary) Processed() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Duration returns the wall time of the batch.
func (s *Summary) Duration() time.Duration {
	if s == nil || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
