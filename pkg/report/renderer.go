package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"mercator-hq/dialoglens/pkg/analysis"
	"mercator-hq/dialoglens/pkg/cli"
	"mercator-hq/dialoglens/pkg/history"
	"mercator-hq/dialoglens/pkg/messaging"
	"mercator-hq/dialoglens/pkg/pipeline"
)

const separator = "--------------------------------------------------"

// Options configures a Renderer.
type Options struct {
	// Writer receives the output. Default: os.Stdout.
	Writer io.Writer

	// Format selects text or JSON lines. Default: text.
	Format cli.OutputFormat

	// ShowMessages includes the conversation window in the output.
	ShowMessages bool

	// Transcript controls labels and timezone for rendered messages.
	Transcript history.TranscriptOptions
}

// Renderer turns pipeline progress into console output. It implements
// pipeline.Presenter and is safe for concurrent use.
type Renderer struct {
	mu sync.Mutex

	w            io.Writer
	format       cli.OutputFormat
	formatter    cli.Formatter
	showMessages bool
	transcript   history.TranscriptOptions

	runID string
}

var _ pipeline.Presenter = (*Renderer)(nil)

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = cli.FormatText
	}
	if opts.Transcript.OperatorLabel == "" && opts.Transcript.CounterpartLabel == "" {
		opts.Transcript = history.DefaultTranscriptOptions()
	}
	return &Renderer{
		w:            opts.Writer,
		format:       opts.Format,
		formatter:    cli.NewFormatter(opts.Format),
		showMessages: opts.ShowMessages,
		transcript:   opts.Transcript,
	}
}

// Begin renders the list of conversations about to be processed.
func (r *Renderer) Begin(ctx context.Context, summary *pipeline.Summary, conversations []messaging.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runID = summary.RunID

	if r.format == cli.FormatJSON {
		return r.formatter.FormatTo(r.w, newRunRecord(summary, conversations))
	}

	if len(conversations) == 0 {
		_, err := fmt.Fprintln(r.w, "No conversations available for analysis.")
		return err
	}

	var b strings.Builder
	b.WriteString("Recent conversations:\n")
	for _, c := range conversations {
		fmt.Fprintf(&b, "  %s (ID: %d)\n", c.Label(), c.ID)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Conversation renders one outcome.
func (r *Renderer) Conversation(ctx context.Context, o *pipeline.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == cli.FormatJSON {
		return r.formatter.FormatTo(r.w, r.newConversationRecord(o))
	}
	_, err := io.WriteString(r.w, r.conversationText(o))
	return err
}

// End renders the batch summary.
func (r *Renderer) End(ctx context.Context, summary *pipeline.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == cli.FormatJSON {
		return r.formatter.FormatTo(r.w, newSummaryRecord(summary))
	}
	_, err := io.WriteString(r.w, summaryText(summary))
	return err
}

func (r *Renderer) conversationText(o *pipeline.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n--- [%d/%d] Conversation: %s (ID: %d) ---\n",
		o.Index, o.Total, o.Conversation.Label(), o.Conversation.ID)

	switch o.Kind {
	case pipeline.OutcomeFetchFailed:
		fmt.Fprintf(&b, "Could not retrieve messages: %v\n", o.Err)

	case pipeline.OutcomeNoMessages:
		b.WriteString(history.EmptyTranscript + "\n")

	default:
		if r.showMessages {
			b.WriteString("Messages:\n")
			b.WriteString(history.FormatTranscript(o.Messages, r.transcript))
			b.WriteString("\n")
		}
		b.WriteString(r.statsText(o.Stats))
		b.WriteString(analysisText(o))
	}

	b.WriteString(separator + "\n")
	return b.String()
}

func (r *Renderer) statsText(s history.Stats) string {
	var b strings.Builder
	b.WriteString("\nConversation stats:\n")
	fmt.Fprintf(&b, "   Total messages: %d\n", s.Total)
	fmt.Fprintf(&b, "   %s messages: %d\n", r.transcript.Label(history.RoleOperator), s.Operator)
	fmt.Fprintf(&b, "   %s messages: %d\n", r.transcript.Label(history.RoleCounterpart), s.Counterpart)
	if !s.First.IsZero() && !s.Last.IsZero() {
		loc := r.location()
		fmt.Fprintf(&b, "   Period: %s - %s\n",
			s.First.In(loc).Format("2006-01-02"), s.Last.In(loc).Format("2006-01-02"))
	}
	if s.Total > 0 {
		fmt.Fprintf(&b, "   %s activity: %s\n",
			r.transcript.Label(history.RoleOperator), history.FormatRatio(s.OperatorRatio))
	}
	return b.String()
}

func (r *Renderer) location() *time.Location {
	if r.transcript.Location != nil {
		return r.transcript.Location
	}
	return time.UTC
}

func analysisText(o *pipeline.Outcome) string {
	switch o.Analysis.Status {
	case analysis.StatusSuccess:
		return "\nAnalysis:\n" + o.Analysis.Text + "\n"
	case analysis.StatusEmpty:
		return "\nAnalysis unavailable: the model returned an empty report.\n"
	default:
		return "\nAnalysis unavailable: " + analysis.FallbackText + ".\n"
	}
}

func summaryText(s *pipeline.Summary) string {
	var b strings.Builder
	b.WriteString("\n")
	if s.Canceled {
		fmt.Fprintf(&b, "Run interrupted after %d of %d conversations.\n", s.Processed(), s.Conversations)
	}
	fmt.Fprintf(&b, "Summary: %d conversations, %d analyzed, %d without messages, %d unavailable, %d failed to fetch\n",
		s.Conversations,
		s.Count(pipeline.OutcomeAnalyzed),
		s.Count(pipeline.OutcomeNoMessages),
		s.Count(pipeline.OutcomeUnavailable),
		s.Count(pipeline.OutcomeFetchFailed),
	)
	fmt.Fprintf(&b, "Run %s finished in %s\n", s.RunID, s.Duration().Round(time.Millisecond))
	return b.String()
}
