// Package logging builds the process logger on log/slog.
//
// # Overview
//
// New returns a Logger embedding *slog.Logger, so components simply take a
// *slog.Logger. The handler it installs:
//   - adds run_id, conversation_id, trace_id and span_id from the context
//     passed to the *Context logging methods
//   - redacts secrets and personal data when RedactPII is set
//   - writes JSON or text to stderr
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Logger)
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "batch started", "limit", 10)
//
// # Redaction
//
//   - Google API keys: AIzaSy... → AIza***
//   - api_key=..., x-goog-api-key: ... → api_key=***
//   - Bearer tokens → Bearer ***
//   - Emails: olena@example.com → o***@example.com
//   - Phones: +380 67 123 4567 → +***67
//
// Attributes whose key names a secret (token, api_key, password, ...) are
// masked regardless of value.
//
// The level can be changed at runtime with SetLevel; the schedule command
// does this when the configuration file changes.
package logging
