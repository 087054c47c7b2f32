// Package history rebuilds a conversation's recent message window and
// renders it for analysis.
//
// A window covers [now - lookback days, now]. Media-only messages are
// dropped and every message is tagged with the operator (outgoing) or
// counterpart role. Windows are returned oldest first.
package history
