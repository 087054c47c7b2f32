// Package pipeline runs a batch of conversation analyses.
//
// A Runner connects the messaging session, enumerates the most recent
// direct conversations, and for each one fetches its window, formats a
// transcript and asks the Analyzer for a report. Each conversation ends in
// exactly one Outcome kind, and its memory is cleared whatever the result.
// Only connect and enumeration failures abort the batch.
package pipeline
