package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mercator-hq/dialoglens/pkg/messaging"
)

// Day is the unit of the lookback window.
const Day = 24 * time.Hour

// Store reconstructs conversation windows from a messaging session.
// Windows are built fresh on every call and never cached.
type Store struct {
	session messaging.Session
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store reading from session.
func NewStore(session messaging.Session, opts ...Option) *Store {
	s := &Store{
		session: session,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "history")
	return s
}

// Window returns the bounds [now - lookbackDays, now] used by History.
func (s *Store) Window(lookbackDays int) (start, end time.Time) {
	end = s.now().UTC()
	return end.Add(-time.Duration(lookbackDays) * Day), end
}

// History returns the text messages of a conversation sent within the last
// lookbackDays days, oldest first. Media-only messages are dropped, and each
// message is tagged with the operator or counterpart role.
//
// Collaborator errors are returned wrapped; there is no retry.
func (s *Store) History(ctx context.Context, conversationID int64, lookbackDays int) ([]Message, error) {
	if lookbackDays < 1 {
		return nil, fmt.Errorf("lookback must be at least 1 day, got %d", lookbackDays)
	}

	start, end := s.Window(lookbackDays)

	it, err := s.session.Messages(ctx, conversationID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to open message history for conversation %d: %w", conversationID, err)
	}
	defer it.Close()

	var (
		out       []Message
		mediaOnly int
		unordered bool
	)
	for {
		raw, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read message history for conversation %d: %w", conversationID, err)
		}

		// Backends are asked for timestamp >= start; anything outside the
		// window is dropped regardless.
		if raw.SentAt.Before(start) || raw.SentAt.After(end) {
			continue
		}
		if strings.TrimSpace(raw.Text) == "" {
			mediaOnly++
			continue
		}

		msg := Message{
			ID:             raw.ID,
			ConversationID: conversationID,
			Timestamp:      raw.SentAt,
			Text:           raw.Text,
			Role:           RoleCounterpart,
		}
		if raw.Outgoing {
			msg.Role = RoleOperator
		}

		if n := len(out); n > 0 && msg.Timestamp.Before(out[n-1].Timestamp) {
			unordered = true
		}
		out = append(out, msg)
	}

	if unordered {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
	}

	s.logger.Debug("conversation window retrieved",
		"conversation_id", conversationID,
		"window_start", start,
		"window_end", end,
		"messages", len(out),
		"media_only", mediaOnly,
	)

	return out, nil
}
