package history

import "time"

// Role tells who sent a message within a conversation.
type Role string

const (
	// RoleOperator is the account owner (outgoing messages).
	RoleOperator Role = "operator"

	// RoleCounterpart is the other participant.
	RoleCounterpart Role = "counterpart"
)

// Message is a text message inside a conversation window.
// Values are not modified after retrieval.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
	Text           string    `json:"text"`
	Role           Role      `json:"role"`
}
