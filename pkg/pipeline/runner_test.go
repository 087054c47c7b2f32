package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	fakemessaging "mercator-hq/dialoglens/internal/messaging"
	mockproviders "mercator-hq/dialoglens/internal/providers"
	"mercator-hq/dialoglens/pkg/analysis"
	"mercator-hq/dialoglens/pkg/memory"
	"mercator-hq/dialoglens/pkg/messaging"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeAnalyzer struct {
	mu        sync.Mutex
	results   map[string]analysis.Result
	analyzed  []string
	cleared   []string
	onAnalyze func()
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{results: make(map[string]analysis.Result)}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, key, transcript string) analysis.Result {
	f.mu.Lock()
	f.analyzed = append(f.analyzed, key)
	res, ok := f.results[key]
	hook := f.onAnalyze
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		res = analysis.Result{Status: analysis.StatusSuccess, Text: "report for " + key}
	}
	return res
}

func (f *fakeAnalyzer) Clear(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, key)
	return nil
}

func (f *fakeAnalyzer) MemoryStatus(ctx context.Context) (memory.Status, error) {
	return memory.Status{}, nil
}

type recordingPresenter struct {
	began    int
	outcomes []*Outcome
	ended    *Summary
}

func (p *recordingPresenter) Begin(ctx context.Context, s *Summary, convs []messaging.Conversation) error {
	p.began++
	return nil
}

func (p *recordingPresenter) Conversation(ctx context.Context, o *Outcome) error {
	p.outcomes = append(p.outcomes, o)
	return nil
}

func (p *recordingPresenter) End(ctx context.Context, s *Summary) error {
	p.ended = s
	return nil
}

func personal(id int64, name string) messaging.Conversation {
	return messaging.Conversation{ID: id, DisplayName: name, Kind: messaging.KindPersonal}
}

func msg(id int64, ago time.Duration, text string, outgoing bool) messaging.Message {
	return messaging.Message{ID: id, SentAt: testNow.Add(-ago), Text: text, Outgoing: outgoing}
}

func newTestRunner(t *testing.T, session messaging.Session, analyzer Analyzer, presenter Presenter) *Runner {
	t.Helper()
	r, err := NewRunner(session, analyzer, presenter, Options{
		Now: func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return r
}

func TestNewRunner_Validation(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	a := newFakeAnalyzer()
	p := &recordingPresenter{}

	if _, err := NewRunner(nil, a, p, Options{}); err == nil {
		t.Error("expected error for nil session")
	}
	if _, err := NewRunner(session, nil, p, Options{}); err == nil {
		t.Error("expected error for nil analyzer")
	}
	if _, err := NewRunner(session, a, nil, Options{}); err == nil {
		t.Error("expected error for nil presenter")
	}
	if _, err := NewRunner(session, a, p, Options{LookbackDays: -1}); err == nil {
		t.Error("expected error for negative lookback")
	}
	if _, err := NewRunner(session, a, p, Options{ConversationLimit: -1}); err == nil {
		t.Error("expected error for negative limit")
	}
}

// A conversation with nothing in the window never reaches the analyzer.
func TestScenario_EmptyWindowSkipsAnalysis(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	session.AddConversation(personal(1, "Quiet"), msg(1, 3*24*time.Hour, "old news", false))
	analyzer := newFakeAnalyzer()
	presenter := &recordingPresenter{}

	summary, err := newTestRunner(t, session, analyzer, presenter).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(presenter.outcomes) != 1 || presenter.outcomes[0].Kind != OutcomeNoMessages {
		t.Fatalf("expected one no_messages outcome, got %+v", presenter.outcomes)
	}
	if len(analyzer.analyzed) != 0 {
		t.Errorf("Analyze must not be called, got %v", analyzer.analyzed)
	}
	if len(analyzer.cleared) != 1 || analyzer.cleared[0] != "chat_1" {
		t.Errorf("expected chat_1 to be cleared, got %v", analyzer.cleared)
	}
	if summary.Count(OutcomeNoMessages) != 1 || summary.Processed() != 1 {
		t.Errorf("unexpected summary counts %+v", summary.Counts)
	}
	if session.Disconnects() != 1 {
		t.Errorf("expected one disconnect, got %d", session.Disconnects())
	}
}

func TestRun_ContainsPerConversationFailures(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	session.AddConversation(personal(1, "Broken"), msg(1, time.Hour, "hi", false))
	session.AddConversation(personal(2, "Unlucky"), msg(1, time.Hour, "hello", false))
	session.AddConversation(personal(3, "Fine"),
		msg(1, 2*time.Hour, "Do you ship?", false),
		msg(2, time.Hour, "Yes", true),
	)
	session.MessagesErr[1] = errors.New("flood wait")

	analyzer := newFakeAnalyzer()
	analyzer.results["chat_2"] = analysis.Result{
		Status: analysis.StatusFailed,
		Text:   analysis.FallbackText,
		Err:    errors.New("deadline exceeded"),
	}
	presenter := &recordingPresenter{}

	summary, err := newTestRunner(t, session, analyzer, presenter).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []Kind{OutcomeFetchFailed, OutcomeUnavailable, OutcomeAnalyzed}
	if len(presenter.outcomes) != len(want) {
		t.Fatalf("expected %d outcomes, got %d", len(want), len(presenter.outcomes))
	}
	for i, o := range presenter.outcomes {
		if o.Kind != want[i] {
			t.Errorf("conversation %d: expected %s, got %s", o.Conversation.ID, want[i], o.Kind)
		}
		if o.Index != i+1 || o.Total != 3 {
			t.Errorf("unexpected position %d/%d", o.Index, o.Total)
		}
	}
	if presenter.outcomes[0].Err == nil || presenter.outcomes[1].Err == nil {
		t.Error("expected errors to be carried on failed outcomes")
	}

	analyzed := presenter.outcomes[2]
	if !strings.Contains(analyzed.Transcript, "Operator: Yes") || analyzed.Stats.Total != 2 {
		t.Errorf("unexpected transcript or stats: %q %+v", analyzed.Transcript, analyzed.Stats)
	}

	if got := strings.Join(analyzer.cleared, ","); got != "chat_1,chat_2,chat_3" {
		t.Errorf("expected every conversation cleared, got %s", got)
	}
	if summary.Conversations != 3 || summary.Processed() != 3 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if presenter.began != 1 || presenter.ended != summary {
		t.Error("presenter must see begin and end once")
	}
}

func TestRun_BlankReportIsUnavailable(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	session.AddConversation(personal(4, "Blank"), msg(1, time.Hour, "hi", false))
	analyzer := newFakeAnalyzer()
	analyzer.results["chat_4"] = analysis.Result{Status: analysis.StatusEmpty}
	presenter := &recordingPresenter{}

	if _, err := newTestRunner(t, session, analyzer, presenter).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if presenter.outcomes[0].Kind != OutcomeUnavailable {
		t.Errorf("expected unavailable, got %s", presenter.outcomes[0].Kind)
	}
}

func TestRun_ConnectFailureIsFatal(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	session.ConnectErr = errors.New("archive locked")
	presenter := &recordingPresenter{}

	summary, err := newTestRunner(t, session, newFakeAnalyzer(), presenter).Run(context.Background())
	if !errors.Is(err, session.ConnectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if summary == nil || summary.RunID == "" {
		t.Error("expected a summary with a run ID")
	}
	if session.Disconnects() != 1 {
		t.Errorf("expected disconnect after failed connect, got %d", session.Disconnects())
	}
	if presenter.began != 0 {
		t.Error("nothing should be rendered when connect fails")
	}
}

func TestRun_ListFailureIsFatal(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	session.ListErr = errors.New("timeout")
	analyzer := newFakeAnalyzer()

	_, err := newTestRunner(t, session, analyzer, &recordingPresenter{}).Run(context.Background())
	if !errors.Is(err, session.ListErr) {
		t.Fatalf("expected list error, got %v", err)
	}
	if session.Disconnects() != 1 {
		t.Errorf("expected session to be released, got %d disconnects", session.Disconnects())
	}
	if len(analyzer.analyzed) != 0 {
		t.Error("no conversation should be analyzed")
	}
}

func TestRun_NoConversations(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	session.AddConversation(messaging.Conversation{ID: 9, Kind: messaging.KindGroup})
	presenter := &recordingPresenter{}

	summary, err := newTestRunner(t, session, newFakeAnalyzer(), presenter).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Conversations != 0 || len(presenter.outcomes) != 0 {
		t.Errorf("expected nothing to process, got %+v", summary)
	}
	if session.ListLimit() != 10 {
		t.Errorf("expected default limit 10, got %d", session.ListLimit())
	}
	if presenter.ended == nil {
		t.Error("summary must still be rendered")
	}
}

func TestRun_StopsBetweenConversationsOnCancel(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	for id := int64(1); id <= 3; id++ {
		session.AddConversation(personal(id, "c"), msg(1, time.Hour, "hi", false))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzer := newFakeAnalyzer()
	analyzer.onAnalyze = cancel
	presenter := &recordingPresenter{}

	summary, err := newTestRunner(t, session, analyzer, presenter).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !summary.Canceled || summary.Processed() != 1 {
		t.Errorf("expected one processed conversation before stop, got %+v", summary)
	}
	if len(analyzer.cleared) != 1 {
		t.Errorf("expected the processed conversation to be cleared, got %v", analyzer.cleared)
	}
	if session.Disconnects() != 1 {
		t.Error("session must be released on cancel")
	}
}

// End to end with the real engine: memory is empty after the batch.
func TestRun_WithEngineLeavesNoMemory(t *testing.T) {
	session := fakemessaging.NewFakeSession()
	session.AddConversation(personal(1, "A"), msg(1, time.Hour, "hi", false))
	session.AddConversation(personal(2, "B"), msg(1, time.Hour, "hey", false), msg(2, 30*time.Minute, "hello", true))

	store := memory.NewLocal(memory.LocalOptions{})
	defer store.Close()
	provider := mockproviders.NewMockProvider("mock",
		mockproviders.MockReply{Content: "report A"},
		mockproviders.MockReply{Err: errors.New("connection reset")},
	)
	engine, err := analysis.NewEngine(provider, store, analysis.Options{Model: "gemini-2.0-flash"})
	if err != nil {
		t.Fatal(err)
	}
	presenter := &recordingPresenter{}

	summary, err := newTestRunner(t, session, engine, presenter).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Count(OutcomeAnalyzed) != 1 || summary.Count(OutcomeUnavailable) != 1 {
		t.Errorf("unexpected counts %+v", summary.Counts)
	}
	if presenter.outcomes[1].Analysis.Text != analysis.FallbackText {
		t.Errorf("expected fallback text, got %q", presenter.outcomes[1].Analysis.Text)
	}

	// Each request starts fresh: instruction plus one input.
	for i, req := range provider.Requests() {
		if len(req.Messages) != 2 {
			t.Errorf("request %d carried %d messages", i, len(req.Messages))
		}
	}

	st, _ := engine.MemoryStatus(context.Background())
	if st.ConversationCount != 0 {
		t.Errorf("expected memory to be released, got %+v", st)
	}
}
