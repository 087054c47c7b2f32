package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/dialoglens/pkg/cli"
	"mercator-hq/dialoglens/pkg/config"
)

var (
	runLookbackDays int
	runLimit        int
	runOutput       string
	runModel        string
	runShowMessages bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze recent conversations once",
	Long: `Run one batch: list the most recent private conversations, rebuild each
one's message window, print the transcript statistics and the model's report,
and clear the conversation's memory before moving on.

Flags override the corresponding configuration values for this run only.

Example:
  dialoglens run --config config.yaml --lookback-days 3 --limit 5`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runLookbackDays, "lookback-days", 0, "window size in days (overrides analysis.lookback_days)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "maximum conversations to analyze (overrides messaging.conversation_limit)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output format: text or json (overrides output.format)")
	runCmd.Flags().StringVar(&runModel, "model", "", "model name (overrides analysis.model)")
	runCmd.Flags().BoolVar(&runShowMessages, "show-messages", false, "print each transcript before its report")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return commandError("run", err)
	}
	defer closeApp(a)

	runner, err := a.newRunner(cfg, cmd.OutOrStdout())
	if err != nil {
		return commandError("run", err)
	}

	if _, err := runner.Run(ctx); err != nil {
		return commandError("run", err)
	}
	return nil
}

// applyRunFlags copies explicitly set flags onto cfg and revalidates it.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("lookback-days") {
		cfg.Analysis.LookbackDays = runLookbackDays
	}
	if flags.Changed("limit") {
		cfg.Messaging.ConversationLimit = runLimit
	}
	if flags.Changed("output") {
		cfg.Output.Format = runOutput
	}
	if flags.Changed("model") {
		cfg.Analysis.Model = runModel
	}
	if flags.Changed("show-messages") {
		cfg.Output.ShowMessages = runShowMessages
	}

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("flags", err.Error())
	}
	return nil
}

func closeApp(a *app) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Close(ctx)
}
