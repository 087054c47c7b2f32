/*
Package cli provides command-line helpers shared by the dialoglens commands.

Output Formatting:

Commands print either human-readable text or JSON:

	format, err := cli.ParseOutputFormat("json")
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(format)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

The JSON formatter writes one compact object per call, so repeated calls
produce JSON lines.

Signal Handling:

Batches stop between conversations on SIGINT or SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

Exit Codes:

ExitCode maps a command error to the process exit status: 0 on success,
130 when interrupted, 1 otherwise.
*/
package cli
