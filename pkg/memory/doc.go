// Package memory holds per-conversation analysis memory.
//
// Each conversation has its own ordered list of input and output turns,
// keyed by Key(conversationID). The system instruction is never stored;
// callers prepend it to every request.
//
// Two backends implement Store:
//
//   - Local keeps turns in process and optionally evicts idle keys.
//   - Redis keeps turns in Redis lists so several processes can share them.
//
// Both bound each key to a whole number of input/output pairs, dropping the
// oldest pair first.
package memory
