package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	mockproviders "mercator-hq/dialoglens/internal/providers"
	"mercator-hq/dialoglens/pkg/config"
	"mercator-hq/dialoglens/pkg/memory"
	"mercator-hq/dialoglens/pkg/providers"
	"mercator-hq/dialoglens/pkg/providers/gemini"
	"mercator-hq/dialoglens/pkg/telemetry/metrics"
)

const testModel = "gemini-2.0-flash"

func newTestEngine(t *testing.T, provider providers.Provider, opts Options) (*Engine, memory.Store) {
	t.Helper()
	store := memory.NewLocal(memory.LocalOptions{})
	t.Cleanup(func() { _ = store.Close() })

	if opts.Model == "" {
		opts.Model = testModel
	}
	e, err := NewEngine(provider, store, opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e, store
}

func TestNewEngine_Validation(t *testing.T) {
	store := memory.NewLocal(memory.LocalOptions{})
	defer store.Close()
	mock := mockproviders.NewMockProvider("mock")

	tests := map[string]struct {
		provider providers.Provider
		store    memory.Store
		opts     Options
	}{
		"nil provider":     {nil, store, Options{Model: testModel}},
		"nil store":        {mock, nil, Options{Model: testModel}},
		"missing model":    {mock, store, Options{}},
		"negative timeout": {mock, store, Options{Model: testModel, RequestTimeout: -time.Second}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewEngine(tt.provider, tt.store, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAnalyze_RequestShape(t *testing.T) {
	mock := mockproviders.NewMockProvider("mock", mockproviders.MockReply{Content: "  1. Three messages  \n"})
	e, store := newTestEngine(t, mock, Options{Temperature: 0.2, MaxOutputTokens: 512})
	ctx := context.Background()

	res := e.Analyze(ctx, "chat_1", "2025-03-10 09:00:00 - Counterpart: hi")
	if res.Status != StatusSuccess || !res.OK() {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Text != "1. Three messages" {
		t.Errorf("expected trimmed text, got %q", res.Text)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Model != testModel || req.Temperature != 0.2 || req.MaxTokens != 512 {
		t.Errorf("unexpected request options %+v", req)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected instruction and input, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Role != providers.RoleSystem || req.Messages[0].Content != e.Instruction() {
		t.Errorf("first message must be the instruction, got %+v", req.Messages[0])
	}
	want := InputPrefix + "2025-03-10 09:00:00 - Counterpart: hi"
	if req.Messages[1].Role != providers.RoleUser || req.Messages[1].Content != want {
		t.Errorf("unexpected input message %+v", req.Messages[1])
	}

	turns, _ := store.Turns(ctx, "chat_1")
	if len(turns) != 2 || turns[0].Content != want || turns[1].Content != "1. Three messages" {
		t.Errorf("unexpected stored turns %+v", turns)
	}
	if turns[1].Role != memory.RoleOutput {
		t.Errorf("expected output role, got %q", turns[1].Role)
	}
}

// A second analysis of the same key carries the first exchange.
func TestScenario_FollowUpCarriesMemory(t *testing.T) {
	mock := mockproviders.NewMockProvider("mock",
		mockproviders.MockReply{Content: "first report"},
		mockproviders.MockReply{Content: "second report"},
	)
	e, store := newTestEngine(t, mock, Options{})
	ctx := context.Background()

	if res := e.Analyze(ctx, "chat_1", "T1"); res.Text != "first report" {
		t.Fatalf("unexpected first result %+v", res)
	}
	if res := e.Analyze(ctx, "chat_1", "T2"); res.Text != "second report" {
		t.Fatalf("unexpected second result %+v", res)
	}

	second := mock.Requests()[1].Messages
	want := []providers.Message{
		{Role: providers.RoleSystem, Content: e.Instruction()},
		{Role: providers.RoleUser, Content: InputPrefix + "T1"},
		{Role: providers.RoleAssistant, Content: "first report"},
		{Role: providers.RoleUser, Content: InputPrefix + "T2"},
	}
	if len(second) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(second))
	}
	for i := range want {
		if second[i] != want[i] {
			t.Errorf("message %d: got %+v, want %+v", i, second[i], want[i])
		}
	}

	turns, _ := store.Turns(ctx, "chat_1")
	if len(turns) != 4 {
		t.Errorf("expected 4 stored turns, got %d", len(turns))
	}
}

// A transport failure yields the fallback and leaves memory untouched.
func TestScenario_ProviderFailureLeavesMemory(t *testing.T) {
	netErr := &providers.ProviderError{Provider: "mock", Message: "connection refused"}
	mock := mockproviders.NewMockProvider("mock",
		mockproviders.MockReply{Content: "first report"},
		mockproviders.MockReply{Err: netErr},
	)
	e, store := newTestEngine(t, mock, Options{})
	ctx := context.Background()

	e.Analyze(ctx, "chat_1", "T1")
	before, _ := store.Turns(ctx, "chat_1")

	res := e.Analyze(ctx, "chat_1", "T2")
	if res.Status != StatusFailed || res.Text != FallbackText {
		t.Fatalf("expected fallback, got %+v", res)
	}
	if !errors.Is(res.Err, netErr) {
		t.Errorf("expected provider error to be kept, got %v", res.Err)
	}

	after, _ := store.Turns(ctx, "chat_1")
	if len(after) != len(before) {
		t.Errorf("memory changed on failure: %d -> %d turns", len(before), len(after))
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	mock := mockproviders.NewMockProvider("mock", mockproviders.MockReply{Block: true})
	e, store := newTestEngine(t, mock, Options{RequestTimeout: 20 * time.Millisecond})

	start := time.Now()
	res := e.Analyze(context.Background(), "chat_1", "T")
	if res.Status != StatusFailed || res.Text != FallbackText {
		t.Fatalf("expected fallback, got %+v", res)
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", res.Err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not applied")
	}

	st, _ := store.Status(context.Background())
	if st.TotalTurns != 0 {
		t.Errorf("expected no turns after timeout, got %d", st.TotalTurns)
	}
}

func TestAnalyze_BlankReply(t *testing.T) {
	mock := mockproviders.NewMockProvider("mock", mockproviders.MockReply{Content: " \n\t "})
	e, store := newTestEngine(t, mock, Options{})
	ctx := context.Background()

	res := e.Analyze(ctx, "chat_1", "T")
	if res.Status != StatusEmpty || res.Text != "" || res.OK() {
		t.Fatalf("expected empty result, got %+v", res)
	}
	turns, _ := store.Turns(ctx, "chat_1")
	if len(turns) != 2 || turns[1].Content != "" {
		t.Errorf("expected exchange to be stored, got %+v", turns)
	}
}

type brokenStore struct {
	memory.Store
}

func (brokenStore) Turns(ctx context.Context, key string) ([]memory.Turn, error) {
	return nil, errors.New("redis: connection refused")
}

func TestAnalyze_MemoryReadFailure(t *testing.T) {
	mock := mockproviders.NewMockProvider("mock")
	local := memory.NewLocal(memory.LocalOptions{})
	defer local.Close()

	e, err := NewEngine(mock, brokenStore{local}, Options{Model: testModel})
	if err != nil {
		t.Fatal(err)
	}

	res := e.Analyze(context.Background(), "chat_1", "T")
	if res.Status != StatusFailed || res.Text != FallbackText {
		t.Fatalf("expected fallback, got %+v", res)
	}
	if mock.CallCount() != 0 {
		t.Error("provider must not be called when memory cannot be read")
	}
}

func TestClearAndStatus(t *testing.T) {
	mock := mockproviders.NewMockProvider("mock")
	e, _ := newTestEngine(t, mock, Options{})
	ctx := context.Background()

	e.Analyze(ctx, memory.Key(1), "a")
	e.Analyze(ctx, memory.Key(2), "b")
	e.Analyze(ctx, memory.Key(2), "c")

	st, err := e.MemoryStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.ConversationCount != 2 || st.TotalTurns != 6 {
		t.Errorf("unexpected status %+v", st)
	}
	if len(st.ConversationIDs) != 2 || st.ConversationIDs[0] != "chat_1" || st.ConversationIDs[1] != "chat_2" {
		t.Errorf("unexpected ids %v", st.ConversationIDs)
	}

	if err := e.Clear(ctx, memory.Key(1)); err != nil {
		t.Fatal(err)
	}
	if err := e.Clear(ctx, memory.Key(99)); err != nil {
		t.Errorf("clearing an unknown key must succeed, got %v", err)
	}

	// A cleared key starts a fresh exchange.
	e.Analyze(ctx, memory.Key(1), "d")
	last := mock.Requests()[mock.CallCount()-1]
	if len(last.Messages) != 2 {
		t.Errorf("expected fresh request after clear, got %d messages", len(last.Messages))
	}

	if err := e.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	st, _ = e.MemoryStatus(ctx)
	if st.ConversationCount != 0 || st.TotalTurns != 0 {
		t.Errorf("expected empty memory, got %+v", st)
	}
}

func TestAnalyze_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "pipeline",
	}, reg)

	mock := mockproviders.NewMockProvider("mock",
		mockproviders.MockReply{Content: "ok"},
		mockproviders.MockReply{Err: &providers.RateLimitError{Provider: "mock"}},
	)
	e, _ := newTestEngine(t, mock, Options{Metrics: collector})
	ctx := context.Background()

	e.Analyze(ctx, "chat_1", "a")
	e.Analyze(ctx, "chat_1", "b")

	n, err := testutil.GatherAndCount(reg, "test_pipeline_analysis_duration_seconds")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected success and failed series, got %d", n)
	}

	if _, err := e.MemoryStatus(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := testutil.GatherAndCount(reg, "test_pipeline_memory_turns"); n != 1 {
		t.Errorf("expected memory gauge to be exported, got %d series", n)
	}
}

// End to end through the Gemini adapter: the retry is exhausted and the
// caller still gets the fallback.
func TestAnalyze_GeminiServerError(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse(mockproviders.GeminiPath(testModel), mockproviders.MockServerError())

	p, err := gemini.NewProvider(mockproviders.TestConfig("gemini", server.URL()))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	e, store := newTestEngine(t, p, Options{RequestTimeout: 5 * time.Second})
	res := e.Analyze(context.Background(), "chat_1", "T")

	if res.Status != StatusFailed || res.Text != FallbackText {
		t.Fatalf("expected fallback, got %+v", res)
	}
	if got := server.GetRequestCount(); got != 2 {
		t.Errorf("expected one attempt plus one retry, got %d requests", got)
	}
	if st, _ := store.Status(context.Background()); st.TotalTurns != 0 {
		t.Errorf("expected memory unchanged, got %d turns", st.TotalTurns)
	}
}

func TestAnalyze_GeminiRoles(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponseSequence(mockproviders.GeminiPath(testModel),
		mockproviders.MockGeminiOK("first", testModel),
		mockproviders.MockGeminiOK("second", testModel),
	)

	p, err := gemini.NewProvider(mockproviders.TestConfig("gemini", server.URL()))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	e, _ := newTestEngine(t, p, Options{})
	ctx := context.Background()
	e.Analyze(ctx, "chat_1", "T1")
	if res := e.Analyze(ctx, "chat_1", "T2"); res.Text != "second" {
		t.Fatalf("unexpected result %+v", res)
	}

	reqs := server.Requests()
	var body struct {
		Contents []struct {
			Role string `json:"role"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(reqs[len(reqs)-1].Body, &body); err != nil {
		t.Fatal(err)
	}
	var roles []string
	for _, c := range body.Contents {
		roles = append(roles, c.Role)
	}
	if got := strings.Join(roles, ","); got != "user,user,model,user" {
		t.Errorf("unexpected Gemini roles %s", got)
	}
}

func TestInstruction(t *testing.T) {
	text, err := LoadInstruction("", InstructionData{Language: "Ukrainian"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "in Ukrainian,") {
		t.Error("expected response language in instruction")
	}
	for _, section := range []string{"1. Message count", "3. Operator promises", "8. Recommendations"} {
		if !strings.Contains(text, section) {
			t.Errorf("instruction misses section %q", section)
		}
	}

	path := filepath.Join(t.TempDir(), "instruction.tmpl")
	if err := os.WriteFile(path, []byte("Report in {{.Language}}.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	custom, err := LoadInstruction(path, InstructionData{Language: "Polish"})
	if err != nil {
		t.Fatal(err)
	}
	if custom != "Report in Polish." {
		t.Errorf("unexpected custom instruction %q", custom)
	}

	if _, err := RenderInstruction("{{.Missing}}", InstructionData{}); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := RenderInstruction("   ", InstructionData{}); err == nil {
		t.Error("expected error for blank instruction")
	}
	if _, err := LoadInstruction(filepath.Join(t.TempDir(), "none"), InstructionData{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProviderRole(t *testing.T) {
	tests := map[memory.Role]string{
		memory.RoleInstruction: providers.RoleSystem,
		memory.RoleInput:       providers.RoleUser,
		memory.RoleOutput:      providers.RoleAssistant,
	}
	for in, want := range tests {
		got, err := providerRole(in)
		if err != nil || got != want {
			t.Errorf("providerRole(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := providerRole("narrator"); err == nil {
		t.Error("expected error for unknown role")
	}
}
