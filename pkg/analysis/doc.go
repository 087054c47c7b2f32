// Package analysis turns conversation transcripts into structured reports.
//
// An Engine sends a fixed system instruction, the conversation's previous
// exchanges and a new transcript to a generative model. Each conversation
// has its own memory, keyed by memory.Key, so follow-up requests see what
// the model was told and answered before. Analyze never fails: errors are
// reported as a Result with StatusFailed and FallbackText.
//
// The mapping from memory roles to provider roles is total:
//
//	instruction → system
//	input       → user
//	output      → assistant
package analysis
