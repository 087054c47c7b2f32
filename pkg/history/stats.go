package history

import (
	"fmt"
	"time"
)

// Stats aggregates a conversation window.
type Stats struct {
	Total       int       `json:"total"`
	Operator    int       `json:"operator"`
	Counterpart int       `json:"counterpart"`
	First       time.Time `json:"first,omitempty"`
	Last        time.Time `json:"last,omitempty"`

	// OperatorRatio is the operator's share of messages in percent (0-100).
	OperatorRatio float64 `json:"operator_ratio"`
}

// ComputeStats counts messages per role and finds the window's first and
// last timestamps. An empty window yields zero Stats.
func ComputeStats(msgs []Message) Stats {
	var st Stats
	for _, m := range msgs {
		st.Total++
		if m.Role == RoleOperator {
			st.Operator++
		} else {
			st.Counterpart++
		}
		if st.First.IsZero() || m.Timestamp.Before(st.First) {
			st.First = m.Timestamp
		}
		if m.Timestamp.After(st.Last) {
			st.Last = m.Timestamp
		}
	}
	if st.Total > 0 {
		st.OperatorRatio = float64(st.Operator) / float64(st.Total) * 100
	}
	return st
}

// FormatRatio renders a percentage with one decimal, e.g. "33.3%".
func FormatRatio(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}
