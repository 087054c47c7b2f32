package report

import (
	"time"

	"mercator-hq/dialoglens/pkg/history"
	"mercator-hq/dialoglens/pkg/messaging"
	"mercator-hq/dialoglens/pkg/pipeline"
)

// Record types written in JSON mode, one per line.
const (
	RecordRun          = "run"
	RecordConversation = "conversation"
	RecordSummary      = "summary"
)

type conversationRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

type runRecord struct {
	Type          string            `json:"type"`
	RunID         string            `json:"run_id"`
	StartedAt     time.Time         `json:"started_at"`
	Conversations []conversationRef `json:"conversations"`
}

type analysisRecord struct {
	Status           string `json:"status"`
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	DurationMs       int64  `json:"duration_ms"`
}

type conversationRecord struct {
	Type         string            `json:"type"`
	RunID        string            `json:"run_id"`
	Index        int               `json:"index"`
	Total        int               `json:"total"`
	Conversation conversationRef   `json:"conversation"`
	Outcome      pipeline.Kind     `json:"outcome"`
	Stats        *history.Stats    `json:"stats,omitempty"`
	Messages     []history.Message `json:"messages,omitempty"`
	Analysis     *analysisRecord   `json:"analysis,omitempty"`
	Error        string            `json:"error,omitempty"`
}

type summaryRecord struct {
	Type          string                `json:"type"`
	RunID         string                `json:"run_id"`
	StartedAt     time.Time             `json:"started_at"`
	FinishedAt    time.Time             `json:"finished_at"`
	DurationMs    int64                 `json:"duration_ms"`
	Conversations int                   `json:"conversations"`
	Outcomes      map[pipeline.Kind]int `json:"outcomes"`
	Canceled      bool                  `json:"canceled,omitempty"`
}

func refOf(c messaging.Conversation) conversationRef {
	return conversationRef{ID: c.ID, Name: c.Label(), Username: c.Username}
}

func newRunRecord(s *pipeline.Summary, convs []messaging.Conversation) runRecord {
	refs := make([]conversationRef, len(convs))
	for i, c := range convs {
		refs[i] = refOf(c)
	}
	return runRecord{
		Type:          RecordRun,
		RunID:         s.RunID,
		StartedAt:     s.StartedAt,
		Conversations: refs,
	}
}

func (r *Renderer) newConversationRecord(o *pipeline.Outcome) conversationRecord {
	rec := conversationRecord{
		Type:         RecordConversation,
		RunID:        r.runID,
		Index:        o.Index,
		Total:        o.Total,
		Conversation: refOf(o.Conversation),
		Outcome:      o.Kind,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	if o.Kind == pipeline.OutcomeFetchFailed {
		return rec
	}

	stats := o.Stats
	rec.Stats = &stats
	if r.showMessages {
		rec.Messages = o.Messages
	}
	if o.Analysis.Status != "" {
		rec.Analysis = &analysisRecord{
			Status:           string(o.Analysis.Status),
			Text:             o.Analysis.Text,
			PromptTokens:     o.Analysis.Usage.PromptTokens,
			CompletionTokens: o.Analysis.Usage.CompletionTokens,
			DurationMs:       o.Analysis.Duration.Milliseconds(),
		}
	}
	return rec
}

func newSummaryRecord(s *pipeline.Summary) summaryRecord {
	outcomes := make(map[pipeline.Kind]int, len(pipeline.Kinds))
	for _, k := range pipeline.Kinds {
		outcomes[k] = s.Count(k)
	}
	return summaryRecord{
		Type:          RecordSummary,
		RunID:         s.RunID,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
		DurationMs:    s.Duration().Milliseconds(),
		Conversations: s.Conversations,
		Outcomes:      outcomes,
		Canceled:      s.Canceled,
	}
}
