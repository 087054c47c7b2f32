// dialoglens reviews recent customer conversations with a language model.
//
// For each recent direct conversation it rebuilds the message history for
// a bounded window, sends the transcript to Gemini and prints a structured
// report on the operator's conduct: promises, ignored questions,
// responsiveness and recommendations.
//
// Usage:
//
//	# Load a Telegram Desktop export into the local archive
//	dialoglens import result.json
//
//	# Analyze the last day of the 10 most recent conversations
//	dialoglens run
//
//	# Analyze a week, print JSON lines
//	dialoglens run --lookback-days 7 --output json
//
//	# Run every morning and serve metrics
//	dialoglens schedule --config config.yaml
//
//	# Check configuration and provider credentials
//	dialoglens validate --check-provider
package main

func main() {
	Execute()
}
