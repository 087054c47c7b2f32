package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand runs the root command with args and captures its output.
// Flag values are reset first because cobra keeps them between executions.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeExport writes a full-account export whose account owner is user 1001.
// Andrii has a recent exchange; Iryna only wrote three days ago.
func writeExport(t *testing.T, dir string, now time.Time) string {
	t.Helper()
	unix := func(d time.Duration) int64 { return now.Add(-d).Unix() }

	export := fmt.Sprintf(`{
  "personal_information": {"user_id": 1001},
  "chats": {"list": [
    {"name": "Andrii", "type": "personal_chat", "id": 2002, "messages": [
      {"id": 1, "type": "message", "date_unixtime": "%d", "from_id": "user2002", "text": "Is the sofa available?"},
      {"id": 2, "type": "message", "date_unixtime": "%d", "from_id": "user1001", "text": "Yes, we can deliver tomorrow."},
      {"id": 3, "type": "message", "date_unixtime": "%d", "from_id": "user2002", "text": "", "photo": "photos/1.jpg"}
    ]},
    {"name": "Iryna", "type": "personal_chat", "id": 4004, "messages": [
      {"id": 1, "type": "message", "date_unixtime": "%d", "from_id": "user4004", "text": "Thanks!"}
    ]},
    {"name": "Team", "type": "private_group", "id": 5005, "messages": [
      {"id": 1, "type": "message", "date_unixtime": "%d", "from_id": "user1001", "text": "standup"}
    ]}
  ]}
}`, unix(3*time.Hour), unix(2*time.Hour), unix(time.Hour), unix(72*time.Hour), unix(30*time.Minute))

	path := filepath.Join(dir, "result.json")
	if err := os.WriteFile(path, []byte(export), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeConfig writes a YAML configuration pointing at archive and baseURL.
func writeConfig(t *testing.T, dir, archivePath, baseURL string, extra ...string) string {
	t.Helper()
	lines := []string{
		"messaging:",
		"  archive:",
		"    path: " + archivePath,
		"analysis:",
		"  model: test-model",
		"  request_timeout: 5s",
		"provider:",
		"  base_url: " + baseURL,
		"  api_key: test-key",
		"  timeout: 5s",
		"  max_retries: 0",
		"output:",
		"  format: json",
		"telemetry:",
		"  logging:",
		"    level: error",
		"  metrics:",
		"    listen_address: 127.0.0.1:0",
	}
	lines = append(lines, extra...)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// rewrite replaces old with new in the file at path.
func rewrite(t *testing.T, path, old, new string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), old) {
		t.Fatalf("%q not found in %s", old, path)
	}
	if err := os.WriteFile(path, []byte(strings.Replace(string(data), old, new, 1)), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
