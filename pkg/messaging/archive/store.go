package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // pure-Go SQLite driver, registered as "sqlite"

	"mercator-hq/dialoglens/pkg/messaging"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// Config configures an archive database.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// Driver is DriverModernc (default) or DriverMattn.
	Driver string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// Create allows Open to create a missing database file. Readers leave
	// it false so a mistyped path fails instead of yielding an empty archive.
	Create bool
}

// Store is the archive database: conversations and their messages.
//
// Store uses a write-ahead log so an import can run while a batch reads.
type Store struct {
	db        *sql.DB
	path      string
	closeOnce sync.Once

	// prepared statements
	listStmt         *sql.Stmt
	messagesStmt     *sql.Stmt
	upsertConvStmt   *sql.Stmt
	upsertMsgStmt    *sql.Stmt
	countMessageStmt *sql.Stmt
}

// ErrArchiveNotFound is returned by Open when the database file is missing
// and Config.Create is false.
var ErrArchiveNotFound = errors.New("archive database not found")

// Open opens (and optionally creates) the archive database.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("archive path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if !cfg.Create {
		if _, err := os.Stat(cfg.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, cfg.Path)
			}
			return nil, fmt.Errorf("failed to stat archive: %w", err)
		}
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, path: cfg.Path}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

// buildDSN encodes WAL mode and the busy timeout in the dialect each driver
// understands.
func buildDSN(cfg Config) (string, error) {
	ms := cfg.BusyTimeout.Milliseconds()
	switch cfg.Driver {
	case DriverModernc:
		return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
			cfg.Path, ms), nil
	case DriverMattn:
		return fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL",
			cfg.Path, ms), nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", cfg.Driver)
	}
}

// initSchema creates the database schema if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		last_message_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS messages (
		conversation_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		sent_at INTEGER NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		outgoing INTEGER NOT NULL DEFAULT 0,
		media_type TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (conversation_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_recent ON conversations(kind, last_message_at);
	CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(conversation_id, sent_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *Store) prepareStatements() error {
	var err error

	s.listStmt, err = s.db.Prepare(`
		SELECT id, display_name, username, kind, last_message_at
		FROM conversations
		WHERE kind = ?
		ORDER BY last_message_at DESC, id ASC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.messagesStmt, err = s.db.Prepare(`
		SELECT id, sent_at, text, outgoing, media_type
		FROM messages
		WHERE conversation_id = ? AND sent_at >= ?
		ORDER BY sent_at ASC, id ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare messages statement: %w", err)
	}

	s.upsertConvStmt, err = s.db.Prepare(`
		INSERT INTO conversations (id, display_name, username, kind, last_message_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			username = CASE WHEN excluded.username <> '' THEN excluded.username ELSE conversations.username END,
			kind = excluded.kind,
			last_message_at = MAX(conversations.last_message_at, excluded.last_message_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare conversation upsert statement: %w", err)
	}

	s.upsertMsgStmt, err = s.db.Prepare(`
		INSERT INTO messages (conversation_id, id, sent_at, text, outgoing, media_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (conversation_id, id) DO UPDATE SET
			sent_at = excluded.sent_at,
			text = excluded.text,
			outgoing = excluded.outgoing,
			media_type = excluded.media_type
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare message upsert statement: %w", err)
	}

	s.countMessageStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	return nil
}

// RecentConversations returns up to limit conversations of the given kind,
// most recently active first.
func (s *Store) RecentConversations(ctx context.Context, kind messaging.Kind, limit int) ([]messaging.Conversation, error) {
	rows, err := s.listStmt.QueryContext(ctx, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []messaging.Conversation
	for rows.Next() {
		var (
			c        messaging.Conversation
			kindText string
			lastUnix int64
		)
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Username, &kindText, &lastUnix); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		c.Kind = messaging.Kind(kindText)
		c.LastMessageAt = time.Unix(lastUnix, 0).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return out, nil
}

// MessagesSince opens an iterator over the conversation's messages sent at
// or after since, oldest first.
func (s *Store) MessagesSince(ctx context.Context, conversationID int64, since time.Time) (messaging.Iterator, error) {
	rows, err := s.messagesStmt.QueryContext(ctx, conversationID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return &rowsIterator{rows: rows, conversationID: conversationID}, nil
}

// MessageCount returns how many messages are stored for a conversation.
func (s *Store) MessageCount(ctx context.Context, conversationID int64) (int, error) {
	var n int
	if err := s.countMessageStmt.QueryRowContext(ctx, conversationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// UpsertConversation inserts or updates a conversation and its messages in
// one transaction. Re-importing the same data leaves the archive unchanged.
func (s *Store) UpsertConversation(ctx context.Context, conv messaging.Conversation, msgs []messaging.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	last := conv.LastMessageAt
	for _, m := range msgs {
		if m.SentAt.After(last) {
			last = m.SentAt
		}
	}

	if _, err := tx.StmtContext(ctx, s.upsertConvStmt).ExecContext(ctx,
		conv.ID, conv.DisplayName, conv.Username, string(conv.Kind), last.Unix()); err != nil {
		return fmt.Errorf("failed to upsert conversation %d: %w", conv.ID, err)
	}

	msgStmt := tx.StmtContext(ctx, s.upsertMsgStmt)
	for _, m := range msgs {
		if _, err := msgStmt.ExecContext(ctx,
			conv.ID, m.ID, m.SentAt.Unix(), m.Text, boolToInt(m.Outgoing), m.MediaType); err != nil {
			return fmt.Errorf("failed to upsert message %d in conversation %d: %w", m.ID, conv.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes prepared statements and the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.listStmt, s.messagesStmt, s.upsertConvStmt, s.upsertMsgStmt, s.countMessageStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
