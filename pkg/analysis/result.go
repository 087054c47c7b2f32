package analysis

import (
	"time"

	"mercator-hq/dialoglens/pkg/providers"
)

// FallbackText is returned in place of a report when analysis fails.
const FallbackText = "an error occurred, please try again"

// Status classifies an analysis result.
type Status string

const (
	// StatusSuccess means the model returned a non-blank report.
	StatusSuccess Status = "success"

	// StatusEmpty means the call succeeded but the report was blank.
	StatusEmpty Status = "empty"

	// StatusFailed means no report was produced. Text holds FallbackText.
	StatusFailed Status = "failed"
)

// Result is the outcome of one Analyze call.
type Result struct {
	Status Status

	// Text is the trimmed report, "" for StatusEmpty, FallbackText for StatusFailed.
	Text string

	// Err is the cause of a failure. It is for logging only.
	Err error

	Usage    providers.TokenUsage
	Duration time.Duration
}

// OK reports whether a non-blank report was produced.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

func failed(err error, started time.Time) Result {
	return Result{
		Status:   StatusFailed,
		Text:     FallbackText,
		Err:      err,
		Duration: time.Since(started),
	}
}
