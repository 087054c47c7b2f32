package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/dialoglens/pkg/analysis"
	"mercator-hq/dialoglens/pkg/cli"
	"mercator-hq/dialoglens/pkg/config"
	"mercator-hq/dialoglens/pkg/messaging/archive"
	"mercator-hq/dialoglens/pkg/providers/gemini"
)

var validateFlags struct {
	checkProvider bool
	checkArchive  bool
	timeout       time.Duration
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load and validate the configuration, render the analysis instruction,
and optionally check that the archive opens and the provider answers.

Examples:
  dialoglens validate --config config.yaml
  dialoglens validate --config config.yaml --check-provider --check-archive`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.checkProvider, "check-provider", false, "require an API key and contact the provider")
	validateCmd.Flags().BoolVar(&validateFlags.checkArchive, "check-archive", false, "open the archive database")
	validateCmd.Flags().DurationVar(&validateFlags.timeout, "timeout", 10*time.Second, "timeout for the provider check")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "✓ Configuration valid (%s)\n", configSource())
	fmt.Fprintf(out, "  Window: %d day(s), up to %d conversations\n", cfg.Analysis.LookbackDays, cfg.Messaging.ConversationLimit)
	fmt.Fprintf(out, "  Model: %s (%s)\n", cfg.Analysis.Model, cfg.Provider.Name)
	fmt.Fprintf(out, "  Memory: %s, %d turns per conversation\n", cfg.Memory.Backend, cfg.Memory.MaxTurns)
	fmt.Fprintf(out, "  Schedule: %s\n", cfg.Schedule.Cron)

	if _, err := transcriptOptions(cfg); err != nil {
		return err
	}

	instruction, err := analysis.LoadInstruction(cfg.Analysis.InstructionFile,
		analysis.InstructionData{Language: cfg.Analysis.ResponseLanguage})
	if err != nil {
		return cli.NewConfigError("analysis.instruction_file", err.Error())
	}
	fmt.Fprintf(out, "✓ Instruction rendered (%d bytes, language %s)\n", len(instruction), cfg.Analysis.ResponseLanguage)

	if validateFlags.checkArchive {
		store, err := archive.Open(archiveConfig(cfg, false))
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		store.Close()
		fmt.Fprintf(out, "✓ Archive readable (%s)\n", cfg.Messaging.Archive.Path)
	}

	if validateFlags.checkProvider {
		if err := config.RequireProviderKey(cfg); err != nil {
			return cli.NewConfigError("provider.api_key", err.Error())
		}
		provider, err := gemini.NewProvider(providerConfig(cfg))
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		defer provider.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), validateFlags.timeout)
		defer cancel()
		if err := provider.HealthCheck(ctx); err != nil {
			return cli.NewCommandError("validate", fmt.Errorf("provider check failed: %w", err))
		}
		fmt.Fprintf(out, "✓ Provider reachable (%s)\n", cfg.Provider.BaseURL)
	}

	return nil
}
