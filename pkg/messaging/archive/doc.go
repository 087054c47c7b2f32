// Package archive implements messaging.Session over a SQLite database of
// conversations imported from Telegram Desktop exports.
//
// # Schema
//
//	conversations(id, display_name, username, kind, last_message_at)
//	messages(conversation_id, id, sent_at, text, outgoing, media_type)
//
// Timestamps are stored as Unix seconds. Media-only messages keep an empty
// text column; filtering them is the reader's concern.
//
// # Drivers
//
// DriverModernc ("sqlite", pure Go) is the default. DriverMattn ("sqlite3")
// uses the cgo binding and requires a cgo-enabled build.
//
// # Importing
//
//	store, _ := archive.Open(archive.Config{Path: "data/archive.db", Create: true})
//	stats, err := archive.NewImporter(store, logger).Import(ctx, f, archive.ImportOptions{})
//
// Imports are upserts keyed by (conversation_id, id), so loading a newer
// export over an older one only adds what is new.
package archive
