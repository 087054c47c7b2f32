package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/dialoglens/pkg/messaging"
)

// Session implements messaging.Session over an archive database.
// Connect opens the database read path; it never creates a missing file.
type Session struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	store *Store
}

// NewSession creates an unconnected archive session.
func NewSession(cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Create = false
	return &Session{
		cfg:    cfg,
		logger: logger.With("component", "messaging.archive"),
	}
}

// Connect opens the archive database.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return nil
	}

	store, err := Open(s.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to archive: %w", err)
	}
	s.store = store

	s.logger.Info("archive session connected", "path", s.cfg.Path, "driver", s.driver())
	return nil
}

// ListRecentConversations returns personal conversations, most recent first.
func (s *Session) ListRecentConversations(ctx context.Context, limit int) ([]messaging.Conversation, error) {
	store, err := s.current()
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("conversation limit must be at least 1, got %d", limit)
	}
	return store.RecentConversations(ctx, messaging.KindPersonal, limit)
}

// Messages iterates a conversation's messages sent at or after since.
func (s *Session) Messages(ctx context.Context, conversationID int64, since time.Time) (messaging.Iterator, error) {
	store, err := s.current()
	if err != nil {
		return nil, err
	}
	return store.MessagesSince(ctx, conversationID, since)
}

// Disconnect closes the database. It is a no-op when not connected.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil

	s.logger.Info("archive session disconnected")
	return err
}

func (s *Session) current() (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil, messaging.ErrNotConnected
	}
	return s.store, nil
}

func (s *Session) driver() string {
	if s.cfg.Driver == "" {
		return DriverModernc
	}
	return s.cfg.Driver
}
