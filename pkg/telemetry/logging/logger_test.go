package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, cfg Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg.Writer = buf
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"text warn", Config{Level: "WARN", Format: "text"}, false},
		{"bad level", Config{Level: "verbose"}, true},
		{"bad format", Config{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("expected only the warning, got %v", lines)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "info", Format: "json"})
	derived := logger.With("component", "test")

	derived.Debug("before")
	if err := logger.SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	derived.Debug("after")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["msg"] != "after" {
		t.Fatalf("expected level change to reach derived loggers, got %v", lines)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("unexpected level %v", logger.Level())
	}
	if err := logger.SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogger_ContextFields(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Format: "json"})

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithConversationID(ctx, 42)
	logger.InfoContext(ctx, "analyzed")
	logger.Info("no context")

	lines := decodeLines(t, buf)
	if lines[0]["run_id"] != "run-1" || lines[0]["conversation_id"] != float64(42) {
		t.Errorf("context fields missing: %v", lines[0])
	}
	if _, ok := lines[1]["run_id"]; ok {
		t.Errorf("unexpected run_id without context: %v", lines[1])
	}
}

func TestLogger_Redaction(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Format: "json", RedactPII: true})

	logger.With("api_key", "AIzaSecretValue").Info("request",
		"url", "https://example.com/v1beta/models?api_key=leaked",
		"counterpart", "olena@example.com",
		"error", errors.New("call +380 67 123 4567 failed"),
		slog.Group("provider", slog.String("token", "abcdef123")),
		"messages", 3,
	)

	out := buf.String()
	for _, leaked := range []string{"SecretValue", "leaked", "olena@", "123 4567", "abcdef123"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log output leaked %q: %s", leaked, out)
		}
	}

	line := decodeLines(t, buf)[0]
	if line["api_key"] != "AIza***" {
		t.Errorf("unexpected api_key %v", line["api_key"])
	}
	if line["messages"] != float64(3) {
		t.Errorf("non-string values must pass through, got %v", line["messages"])
	}
}

func TestLogger_NoRedaction(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Format: "json", RedactPII: false})

	logger.Info("x", "email", "olena@example.com")
	if !strings.Contains(buf.String(), "olena@example.com") {
		t.Error("values must be untouched when redaction is disabled")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Format: "text"})

	logger.Info("hello", "count", 2)
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "count=2") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}
