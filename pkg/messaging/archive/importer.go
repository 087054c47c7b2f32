package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"mercator-hq/dialoglens/pkg/messaging"
)

// Telegram Desktop export schema (result.json). A full account export wraps
// the chats in chats.list; a single-chat export is the chat object itself.

type exportRoot struct {
	PersonalInformation *struct {
		UserID int64 `json:"user_id"`
	} `json:"personal_information"`
	Chats *struct {
		List []exportChat `json:"list"`
	} `json:"chats"`

	// Present when the file is a single-chat export.
	exportChat
}

type exportChat struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Messages []exportMessage `json:"messages"`
}

type exportMessage struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	Date         string     `json:"date"`
	DateUnixtime string     `json:"date_unixtime"`
	FromID       string     `json:"from_id"`
	Text         exportText `json:"text"`
	Photo        string     `json:"photo"`
	File         string     `json:"file"`
	MediaType    string     `json:"media_type"`
}

// exportText is either a plain string or an array mixing strings and
// entity objects ({"type": "bold", "text": "..."}).
type exportText string

func (t *exportText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = exportText(s)
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("text must be a string or an array: %w", err)
	}

	var sb strings.Builder
	for _, raw := range parts {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			sb.WriteString(s)
			continue
		}
		var entity struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &entity); err != nil {
			return fmt.Errorf("invalid text entity: %w", err)
		}
		sb.WriteString(entity.Text)
	}
	*t = exportText(sb.String())
	return nil
}

// ImportOptions controls how an export is loaded.
type ImportOptions struct {
	// SelfID is the account owner's user ID. Messages from this user are
	// outgoing. Required for single-chat exports, which do not carry it;
	// overrides personal_information.user_id when set.
	SelfID int64

	// Location interprets the export's local "date" field when
	// date_unixtime is absent. Default: UTC.
	Location *time.Location
}

// ImportStats summarizes an import.
type ImportStats struct {
	Conversations int
	Messages      int
	MediaOnly     int
	Skipped       int
}

// Importer loads Telegram Desktop exports into a Store.
type Importer struct {
	store  *Store
	logger *slog.Logger
}

// NewImporter creates an importer writing to store.
func NewImporter(store *Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger.With("component", "archive.importer")}
}

// Import reads an export from r and upserts every chat it contains.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportStats, error) {
	var root exportRoot
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}

	selfID := opts.SelfID
	if selfID == 0 && root.PersonalInformation != nil {
		selfID = root.PersonalInformation.UserID
	}
	if selfID == 0 {
		return nil, fmt.Errorf("account user ID unknown: export has no personal_information, pass a self ID")
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var chats []exportChat
	switch {
	case root.Chats != nil:
		chats = root.Chats.List
	case root.Type != "":
		chats = []exportChat{root.exportChat}
	default:
		return nil, fmt.Errorf("export contains neither chats.list nor a chat object")
	}

	selfFrom := "user" + strconv.FormatInt(selfID, 10)
	stats := &ImportStats{}

	for _, chat := range chats {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		conv := messaging.Conversation{
			ID:          chat.ID,
			DisplayName: chat.Name,
			Kind:        chatKind(chat.Type),
		}

		msgs := make([]messaging.Message, 0, len(chat.Messages))
		for _, em := range chat.Messages {
			if em.Type != "message" {
				stats.Skipped++
				continue
			}

			sentAt, err := parseExportTime(em, loc)
			if err != nil {
				im.logger.Warn("skipping message with unreadable date",
					"conversation_id", chat.ID,
					"message_id", em.ID,
					"error", err,
				)
				stats.Skipped++
				continue
			}

			m := messaging.Message{
				ID:             em.ID,
				ConversationID: chat.ID,
				SentAt:         sentAt,
				Text:           string(em.Text),
				Outgoing:       em.FromID == selfFrom,
				MediaType:      mediaType(em),
			}
			if strings.TrimSpace(m.Text) == "" {
				m.Text = ""
				stats.MediaOnly++
			}
			msgs = append(msgs, m)
		}

		if err := im.store.UpsertConversation(ctx, conv, msgs); err != nil {
			return stats, err
		}

		stats.Conversations++
		stats.Messages += len(msgs)

		im.logger.Debug("imported conversation",
			"conversation_id", chat.ID,
			"kind", conv.Kind,
			"messages", len(msgs),
		)
	}

	im.logger.Info("import complete",
		"conversations", stats.Conversations,
		"messages", stats.Messages,
		"media_only", stats.MediaOnly,
		"skipped", stats.Skipped,
	)

	return stats, nil
}

func parseExportTime(m exportMessage, loc *time.Location) (time.Time, error) {
	if m.DateUnixtime != "" {
		sec, err := strconv.ParseInt(m.DateUnixtime, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date_unixtime %q: %w", m.DateUnixtime, err)
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", m.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", m.Date, err)
	}
	return t.UTC(), nil
}

func chatKind(exportType string) messaging.Kind {
	switch exportType {
	case "personal_chat":
		return messaging.KindPersonal
	case "bot_chat":
		return messaging.KindBot
	case "saved_messages":
		return messaging.KindSaved
	case "private_channel", "public_channel":
		return messaging.KindChannel
	default:
		return messaging.KindGroup
	}
}

func mediaType(m exportMessage) string {
	switch {
	case m.MediaType != "":
		return m.MediaType
	case m.Photo != "":
		return "photo"
	case m.File != "":
		return "file"
	default:
		return ""
	}
}
