// Package messaging defines the collaborator through which dialoglens reads
// conversations: a Session that lists recent direct conversations and
// iterates their messages lazily.
//
// The archive subpackage provides the SQLite-backed implementation.
package messaging
