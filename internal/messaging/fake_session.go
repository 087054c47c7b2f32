// Package messaging provides an in-memory messaging.Session for tests.
package messaging

import (
	"context"
	"io"
	"sync"
	"time"

	"mercator-hq/dialoglens/pkg/messaging"
)

// FakeSession is an in-memory messaging.Session.
// Messages are returned in the order they were added, filtered by since;
// the fake does not sort, so tests can exercise out-of-order backends.
type FakeSession struct {
	mu sync.Mutex

	conversations []messaging.Conversation
	messages      map[int64][]messaging.Message

	// Injected failures.
	ConnectErr  error
	ListErr     error
	MessagesErr map[int64]error

	connected     bool
	connects      int
	disconnects   int
	messageCalls  map[int64]int
	lastSince     map[int64]time.Time
	listLimitSeen int
}

// NewFakeSession creates an empty fake session.
func NewFakeSession() *FakeSession {
	return &FakeSession{
		messages:     make(map[int64][]messaging.Message),
		MessagesErr:  make(map[int64]error),
		messageCalls: make(map[int64]int),
		lastSince:    make(map[int64]time.Time),
	}
}

// AddConversation registers a conversation with its messages.
func (f *FakeSession) AddConversation(conv messaging.Conversation, msgs ...messaging.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.conversations = append(f.conversations, conv)
	for i := range msgs {
		msgs[i].ConversationID = conv.ID
	}
	f.messages[conv.ID] = append(f.messages[conv.ID], msgs...)
}

func (f *FakeSession) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connects++
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.connected = true
	return nil
}

func (f *FakeSession) ListRecentConversations(ctx context.Context, limit int) ([]messaging.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return nil, messaging.ErrNotConnected
	}
	f.listLimitSeen = limit
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var out []messaging.Conversation
	for _, c := range f.conversations {
		if c.Kind != messaging.KindPersonal {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *FakeSession) Messages(ctx context.Context, conversationID int64, since time.Time) (messaging.Iterator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return nil, messaging.ErrNotConnected
	}
	f.messageCalls[conversationID]++
	f.lastSince[conversationID] = since
	if err := f.MessagesErr[conversationID]; err != nil {
		return nil, err
	}

	var out []messaging.Message
	for _, m := range f.messages[conversationID] {
		if !m.SentAt.Before(since) {
			out = append(out, m)
		}
	}
	return &sliceIterator{items: out}, nil
}

func (f *FakeSession) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.disconnects++
	f.connected = false
	return nil
}

// Disconnects returns how many times Disconnect was called.
func (f *FakeSession) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

// MessageCalls returns how many windows were requested for a conversation.
func (f *FakeSession) MessageCalls(conversationID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messageCalls[conversationID]
}

// LastSince returns the lower bound of the last window requested.
func (f *FakeSession) LastSince(conversationID int64) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSince[conversationID]
}

// ListLimit returns the limit passed to the last ListRecentConversations call.
func (f *FakeSession) ListLimit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listLimitSeen
}

type sliceIterator struct {
	items []messaging.Message
	pos   int
}

func (it *sliceIterator) Next(ctx context.Context) (messaging.Message, error) {
	if err := ctx.Err(); err != nil {
		return messaging.Message{}, err
	}
	if it.pos >= len(it.items) {
		return messaging.Message{}, io.EOF
	}
	m := it.items[it.pos]
	it.pos++
	return m, nil
}

func (it *sliceIterator) Close() error { return nil }
