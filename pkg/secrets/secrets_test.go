package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, dir, name, value string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(value), mode); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(dir, name), mode); err != nil {
		t.Fatal(err)
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("TEST_SECRET_GEMINI_API_KEY", "from-env")
	p := NewEnvProvider("TEST_SECRET_")

	got, err := p.GetSecret(context.Background(), "gemini-api-key")
	if err != nil || got != "from-env" {
		t.Fatalf("GetSecret = %q, %v", got, err)
	}
	if _, err := p.GetSecret(context.Background(), "missing"); err == nil {
		t.Error("expected error for unset variable")
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "gemini-api-key", "from-file\n", 0o600)
	writeSecret(t, dir, "loose", "x", 0o644)

	p, err := NewFileProvider(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	got, err := p.GetSecret(ctx, "gemini-api-key")
	if err != nil || got != "from-file" {
		t.Fatalf("GetSecret = %q, %v", got, err)
	}

	tests := map[string]string{
		"loose":       "insecure permissions",
		"missing":     "not found",
		"../escape":   "directory traversal",
		"a/../../etc": "directory traversal",
	}
	for name, want := range tests {
		if _, err := p.GetSecret(ctx, name); err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("GetSecret(%q) = %v, want error containing %q", name, err, want)
		}
	}

	if !p.Supports("gemini-api-key") || p.Supports("missing") || p.Supports("../escape") {
		t.Error("unexpected Supports result")
	}
}

func TestNewFileProvider_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "file", "x", 0o600)
	if _, err := NewFileProvider(filepath.Join(dir, "file")); err == nil {
		t.Error("expected error for a file path")
	}
}

func TestResolver_FileBeforeEnv(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "redis-password", "file-pass", 0o400)
	t.Setenv("TEST_SECRET_REDIS_PASSWORD", "env-pass")
	t.Setenv("TEST_SECRET_GEMINI_API_KEY", "env-key")

	fp, err := NewFileProvider(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(nil, fp, NewEnvProvider("TEST_SECRET_"))

	got, err := r.Resolve(context.Background(), "${secret:redis-password}")
	if err != nil || got != "file-pass" {
		t.Errorf("expected file value, got %q (%v)", got, err)
	}

	got, err = r.Resolve(context.Background(), "key=${secret:gemini-api-key}")
	if err != nil || got != "key=env-key" {
		t.Errorf("expected env fallback, got %q (%v)", got, err)
	}
}

func TestResolver_UnresolvedReferenceKept(t *testing.T) {
	r := NewResolver(nil, NewEnvProvider("TEST_SECRET_NONE_"))

	got, err := r.Resolve(context.Background(), "${secret:nope}")
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "${secret:nope}" {
		t.Errorf("expected reference to be kept, got %q", got)
	}
}

func TestHasReference(t *testing.T) {
	if !HasReference("${secret:a}") || HasReference("plain-key") || HasReference("${env:a}") {
		t.Error("unexpected HasReference result")
	}
}

func TestRedactName(t *testing.T) {
	if got := redactName("gemini-api-key"); got != "ge...ey" {
		t.Errorf("got %q", got)
	}
	if got := redactName("key"); got != "***" {
		t.Errorf("got %q", got)
	}
}
