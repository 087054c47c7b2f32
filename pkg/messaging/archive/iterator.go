package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"mercator-hq/dialoglens/pkg/messaging"
)

// rowsIterator adapts *sql.Rows to messaging.Iterator.
type rowsIterator struct {
	rows           *sql.Rows
	conversationID int64
	done           bool
}

func (it *rowsIterator) Next(ctx context.Context) (messaging.Message, error) {
	if it.done {
		return messaging.Message{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		it.Close()
		return messaging.Message{}, err
	}

	if !it.rows.Next() {
		err := it.rows.Err()
		it.Close()
		if err != nil {
			return messaging.Message{}, fmt.Errorf("failed to iterate messages: %w", err)
		}
		return messaging.Message{}, io.EOF
	}

	var (
		m        messaging.Message
		sentUnix int64
		outgoing int
	)
	if err := it.rows.Scan(&m.ID, &sentUnix, &m.Text, &outgoing, &m.MediaType); err != nil {
		it.Close()
		return messaging.Message{}, fmt.Errorf("failed to scan message: %w", err)
	}
	m.ConversationID = it.conversationID
	m.SentAt = time.Unix(sentUnix, 0).UTC()
	m.Outgoing = outgoing != 0

	return m, nil
}

func (it *rowsIterator) Close() error {
	if it.done {
		return nil
	}
	it.done = true
	return it.rows.Close()
}
