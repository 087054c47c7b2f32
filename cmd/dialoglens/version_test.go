package main

import (
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	t.Cleanup(func() {
		Version = origVersion
		GitCommit = origGitCommit
	})

	Version = "0.1.0-test"
	GitCommit = "abc123"

	stdout, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(stdout, "dialoglens 0.1.0-test") {
		t.Errorf("expected version line, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Git Commit: abc123") {
		t.Errorf("expected commit line, got:\n%s", stdout)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "schedule", "import", "validate", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}
