package history

import (
	"strings"
	"time"
)

// TimestampLayout is the timestamp format of transcript lines.
const TimestampLayout = "2006-01-02 15:04:05"

// EmptyTranscript is returned by FormatTranscript for an empty window.
const EmptyTranscript = "No messages to analyze."

// TranscriptOptions controls transcript rendering.
type TranscriptOptions struct {
	OperatorLabel    string
	CounterpartLabel string

	// Location converts timestamps before formatting. Default: UTC.
	Location *time.Location
}

// DefaultTranscriptOptions labels roles Operator and Counterpart in UTC.
func DefaultTranscriptOptions() TranscriptOptions {
	return TranscriptOptions{
		OperatorLabel:    "Operator",
		CounterpartLabel: "Counterpart",
		Location:         time.UTC,
	}
}

// Label returns the display label for role.
func (o TranscriptOptions) Label(role Role) string {
	if role == RoleOperator {
		if o.OperatorLabel != "" {
			return o.OperatorLabel
		}
		return "Operator"
	}
	if o.CounterpartLabel != "" {
		return o.CounterpartLabel
	}
	return "Counterpart"
}

// FormatTranscript renders one "<timestamp> - <label>: <text>" line per
// message, in the order given.
func FormatTranscript(msgs []Message, opts TranscriptOptions) string {
	if len(msgs) == 0 {
		return EmptyTranscript
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.Timestamp.In(loc).Format(TimestampLayout))
		sb.WriteString(" - ")
		sb.WriteString(opts.Label(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Text)
	}
	return sb.String()
}
