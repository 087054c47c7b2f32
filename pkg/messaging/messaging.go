package messaging

import (
	"context"
	"errors"
	"time"
)

// Kind classifies a conversation.
type Kind string

const (
	// KindPersonal is a one-to-one conversation with another user.
	KindPersonal Kind = "personal"
	KindBot      Kind = "bot"
	KindGroup    Kind = "group"
	KindChannel  Kind = "channel"
	KindSaved    Kind = "saved"
)

// Conversation is a chat known to the messaging platform.
type Conversation struct {
	ID            int64
	DisplayName   string
	Username      string
	Kind          Kind
	LastMessageAt time.Time
}

// Label returns the best human-readable name for the conversation.
func (c Conversation) Label() string {
	switch {
	case c.DisplayName != "":
		return c.DisplayName
	case c.Username != "":
		return "@" + c.Username
	default:
		return "unknown"
	}
}

// Message is a raw platform message. Text is empty for media-only messages.
type Message struct {
	ID             int64
	ConversationID int64
	SentAt         time.Time
	Text           string
	Outgoing       bool
	MediaType      string
}

// Iterator yields messages lazily. Next returns io.EOF after the last message.
// Close must be called when the caller stops early.
type Iterator interface {
	Next(ctx context.Context) (Message, error)
	Close() error
}

// Session is an authenticated connection to a messaging platform.
//
// Connect must succeed before any other call. Disconnect releases the
// session and is safe to call after a failed Connect.
type Session interface {
	Connect(ctx context.Context) error

	// ListRecentConversations returns up to limit direct (personal)
	// conversations, most recently active first.
	ListRecentConversations(ctx context.Context, limit int) ([]Conversation, error)

	// Messages iterates the conversation's messages sent at or after since,
	// oldest first.
	Messages(ctx context.Context, conversationID int64, since time.Time) (Iterator, error)

	Disconnect(ctx context.Context) error
}

// ErrNotConnected is returned by Session methods called before Connect.
var ErrNotConnected = errors.New("messaging session is not connected")
