package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/dialoglens/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dialoglens",
	Short: "dialoglens - language-model review of customer conversations",
	Long: `dialoglens retrieves recent private conversations, rebuilds each one's
message history for a bounded window, and asks a generative-language model for
a structured evaluation of the operator's conduct.

Configuration is read from --config (YAML) and DIALOGLENS_SECTION_FIELD
environment variables, e.g. DIALOGLENS_PROVIDER_API_KEY.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the mapped status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and environment only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
