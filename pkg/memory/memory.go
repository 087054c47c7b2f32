package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Role identifies who produced a turn.
type Role string

const (
	// RoleInstruction is the system instruction. It is sent with every
	// request but never stored.
	RoleInstruction Role = "instruction"

	// RoleInput is a request sent to the model.
	RoleInput Role = "input"

	// RoleOutput is the model's reply.
	RoleOutput Role = "output"
)

// Turn is one stored exchange element.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Status summarizes what a Store holds.
type Status struct {
	ConversationCount int      `json:"conversation_count"`
	ConversationIDs   []string `json:"conversation_ids"`
	TotalTurns        int      `json:"total_turns"`
}

// Store keeps an isolated, append-only list of turns per conversation key.
//
// Append is atomic per key: either all given turns are stored or none.
// Operations on different keys never observe each other.
type Store interface {
	// Turns returns a copy of the key's turns, oldest first. An unknown key
	// yields an empty slice.
	Turns(ctx context.Context, key string) ([]Turn, error)

	// Append adds turns to the key, creating it if needed, then trims the
	// oldest pairs beyond the configured maximum.
	Append(ctx context.Context, key string, turns ...Turn) error

	// Clear removes the key. Clearing an unknown key is not an error.
	Clear(ctx context.Context, key string) error

	// ClearAll removes every key.
	ClearAll(ctx context.Context) error

	// Status reports the keys held (sorted) and the total number of turns.
	Status(ctx context.Context) (Status, error)

	// Close releases background resources.
	Close() error
}

// ErrInstructionTurn is returned when an instruction turn is appended.
var ErrInstructionTurn = errors.New("instruction turns are not stored in memory")

// Key returns the memory key for a conversation.
func Key(conversationID int64) string {
	return fmt.Sprintf("chat_%d", conversationID)
}

// DefaultMaxTurns is used when Options.MaxTurns is zero.
const DefaultMaxTurns = 20

// turnCap rounds maxTurns down to a whole number of input/output pairs.
func turnCap(maxTurns int) int {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if maxTurns < 2 {
		return 2
	}
	return maxTurns - maxTurns%2
}

// trimPairs drops the oldest turns, a pair at a time, until at most limit remain.
func trimPairs(turns []Turn, limit int) []Turn {
	excess := len(turns) - limit
	if excess <= 0 {
		return turns
	}
	if excess%2 == 1 {
		excess++
	}
	if excess > len(turns) {
		excess = len(turns)
	}
	return append([]Turn(nil), turns[excess:]...)
}

func validateTurns(turns []Turn) error {
	for _, t := range turns {
		switch t.Role {
		case RoleInput, RoleOutput:
		case RoleInstruction:
			return ErrInstructionTurn
		default:
			return fmt.Errorf("unknown turn role %q", t.Role)
		}
	}
	return nil
}

func sortedStatus(counts map[string]int) Status {
	st := Status{ConversationIDs: make([]string, 0, len(counts))}
	for id, n := range counts {
		st.ConversationIDs = append(st.ConversationIDs, id)
		st.TotalTurns += n
	}
	sort.Strings(st.ConversationIDs)
	st.ConversationCount = len(st.ConversationIDs)
	return st
}
