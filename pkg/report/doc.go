// Package report renders pipeline outcomes for the console.
//
// Text output mirrors an operator's reading order: the conversation
// header, optionally its messages, a statistics block and the report.
// JSON output writes one object per line: a "run" record, one
// "conversation" record per outcome and a closing "summary" record.
package report
