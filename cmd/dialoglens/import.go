package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercator-hq/dialoglens/pkg/cli"
	"mercator-hq/dialoglens/pkg/messaging/archive"
)

var importFlags struct {
	selfID   int64
	timezone string
	archive  string
	format   string
}

var importCmd = &cobra.Command{
	Use:   "import <result.json>",
	Short: "Load a chat export into the archive",
	Long: `Load a Telegram Desktop JSON export (result.json) into the archive database.

Both full account exports and single-chat exports are accepted. Single-chat
exports do not name the account owner, so --self-id is required for them.
Re-importing the same export is idempotent.

Examples:
  dialoglens import ~/Downloads/Telegram/result.json
  dialoglens import chat.json --self-id 1001 --timezone Europe/Kyiv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int64Var(&importFlags.selfID, "self-id", 0, "account owner's user ID (required for single-chat exports)")
	importCmd.Flags().StringVar(&importFlags.timezone, "timezone", "", "zone of the export's local dates (defaults to analysis.timezone)")
	importCmd.Flags().StringVar(&importFlags.archive, "archive", "", "archive database path (overrides messaging.archive.path)")
	importCmd.Flags().StringVar(&importFlags.format, "format", "text", "output format: text, json")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if importFlags.archive != "" {
		cfg.Messaging.Archive.Path = importFlags.archive
	}

	format, err := cli.ParseOutputFormat(importFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	tz := cfg.Analysis.Timezone
	if importFlags.timezone != "" {
		tz = importFlags.timezone
	}
	loc, err := loadLocation(tz)
	if err != nil {
		return cli.NewConfigError("timezone", err.Error())
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return cli.NewCommandError("import", fmt.Errorf("failed to open export: %w", err))
	}
	defer f.Close()

	if dir := filepath.Dir(cfg.Messaging.Archive.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cli.NewCommandError("import", fmt.Errorf("failed to create archive directory: %w", err))
		}
	}

	store, err := archive.Open(archiveConfig(cfg, true))
	if err != nil {
		return cli.NewCommandError("import", err)
	}
	defer store.Close()

	stats, err := archive.NewImporter(store, logger.Logger).Import(cmd.Context(), f, archive.ImportOptions{
		SelfID:   importFlags.selfID,
		Location: loc,
	})
	if err != nil {
		return cli.NewCommandError("import", err)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return (&cli.JSONFormatter{Indent: true}).FormatTo(out, map[string]any{
			"archive":       store.Path(),
			"conversations": stats.Conversations,
			"messages":      stats.Messages,
			"media_only":    stats.MediaOnly,
			"skipped":       stats.Skipped,
		})
	}

	fmt.Fprintf(out, "✓ Imported %d conversations into %s\n", stats.Conversations, store.Path())
	fmt.Fprintf(out, "  Messages: %d (%d media-only)\n", stats.Messages, stats.MediaOnly)
	if stats.Skipped > 0 {
		fmt.Fprintf(out, "  Skipped: %d service or unreadable entries\n", stats.Skipped)
	}
	return nil
}
