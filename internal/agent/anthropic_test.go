package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// fakeMessagesAPI scripts the Messages endpoint: one SSE body per call, the
// last body repeating for any further calls.
type fakeMessagesAPI struct {
	mu        sync.Mutex
	requests  []anthropicRequest
	headers   []http.Header
	responses []string
}

func (f *fakeMessagesAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req anthropicRequest
		json.Unmarshal(body, &req)

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.headers = append(f.headers, r.Header.Clone())
		idx := len(f.requests) - 1
		f.mu.Unlock()

		if idx >= len(f.responses) {
			idx = len(f.responses) - 1
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, f.responses[idx])
	}
}

func (f *fakeMessagesAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// sse assembles data frames into one SSE response body.
func sse(frames ...string) string {
	var b strings.Builder
	for _, frame := range frames {
		b.WriteString("data: ")
		b.WriteString(frame)
		b.WriteString("\n\n")
	}
	return b.String()
}

// textTurn scripts a complete single text block ending with stopReason.
func textTurn(text, stopReason string) string {
	delta, _ := json.Marshal(text)
	return sse(
		`{"type":"message_start","message":{"role":"assistant"}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":`+string(delta)+`}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"`+stopReason+`"}}`,
		`{"type":"message_stop"}`,
	)
}

func testConfig() types.Config {
	cfg := types.DefaultConfig()
	cfg.APIKey = "test-key"
	return cfg
}

// drainStream consumes a stream to its end, returning the events and the
// terminal error (nil for a normal io.EOF finish).
func drainStream(t *testing.T, s Stream) ([]Event, error) {
	t.Helper()
	var events []Event
	for {
		ev, err := s.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func withFakeAPI(t *testing.T, fake *fakeMessagesAPI) *AnthropicAgent {
	t.Helper()
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	old := anthropicAPIBase
	anthropicAPIBase = ts.URL
	t.Cleanup(func() { anthropicAPIBase = old })

	return NewAnthropicAgent(ts.Client())
}

func TestAnthropicResearchSingleTurn(t *testing.T) {
	fake := &fakeMessagesAPI{responses: []string{
		textTurn(`<FOUNDERS_FINAL>["Ada Lovelace"]</FOUNDERS_FINAL>`, "end_turn"),
	}}
	a := withFakeAPI(t, fake)

	stream, err := a.Research(context.Background(), types.Company{Name: "Analytical Engines"}, testConfig())
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	events, err := drainStream(t, stream)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}

	if fake.calls() != 1 {
		t.Errorf("API calls = %d, want 1", fake.calls())
	}

	var text strings.Builder
	for _, ev := range events {
		chunk, ok := ev.(TextChunk)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		text.WriteString(chunk.Text)
	}
	want := `<FOUNDERS_FINAL>["Ada Lovelace"]</FOUNDERS_FINAL>`
	if text.String() != want {
		t.Errorf("text = %q, want %q", text.String(), want)
	}
}

func TestAnthropicResearchRequestShape(t *testing.T) {
	fake := &fakeMessagesAPI{responses: []string{textTurn("[]", "end_turn")}}
	a := withFakeAPI(t, fake)

	cfg := testConfig()
	cfg.Model = "claude-sonnet-4-5-20250929"
	cfg.MaxTokens = 2048

	stream, err := a.Research(context.Background(), types.Company{Name: "Airbnb", URL: "https://www.airbnb.com/"}, cfg)
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	if _, err := drainStream(t, stream); err != nil {
		t.Fatalf("stream error = %v", err)
	}

	req := fake.requests[0]
	if req.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("model = %q", req.Model)
	}
	if req.MaxTokens != 2048 {
		t.Errorf("max_tokens = %d, want 2048", req.MaxTokens)
	}
	if !req.Stream {
		t.Error("stream flag not set")
	}
	if req.System == "" || !strings.Contains(req.System, "FOUNDERS_FINAL") {
		t.Errorf("system prompt missing marker convention: %q", req.System)
	}
	if len(req.Tools) != 2 || req.Tools[0].Name != "web_search" || req.Tools[1].Name != "web_fetch" {
		t.Errorf("tools = %+v", req.Tools)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", req.Messages)
	}
	prompt, ok := req.Messages[0].Content.(string)
	if !ok || !strings.Contains(prompt, "Airbnb") || !strings.Contains(prompt, "https://www.airbnb.com/") {
		t.Errorf("prompt = %v", req.Messages[0].Content)
	}

	h := fake.headers[0]
	if h.Get("x-api-key") != "test-key" {
		t.Errorf("x-api-key = %q", h.Get("x-api-key"))
	}
	if h.Get("anthropic-version") != anthropicVersion {
		t.Errorf("anthropic-version = %q", h.Get("anthropic-version"))
	}
}

func TestAnthropicResearchToolEvents(t *testing.T) {
	turn := sse(
		`{"type":"message_start","message":{"role":"assistant"}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"server_tool_use","id":"srvtoolu_1","name":"web_search","input":{}}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"query\":"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"airbnb founders\"}"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"web_search_tool_result","tool_use_id":"srvtoolu_1","content":[{"type":"web_search_result","url":"https://example.com/airbnb","title":"Airbnb history"}]}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"content_block_start","index":2,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":2,"delta":{"type":"text_delta","text":"done"}}`,
		`{"type":"content_block_stop","index":2}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		`{"type":"message_stop"}`,
	)
	fake := &fakeMessagesAPI{responses: []string{turn}}
	a := withFakeAPI(t, fake)

	stream, err := a.Research(context.Background(), types.Company{Name: "Airbnb"}, testConfig())
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	events, err := drainStream(t, stream)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}

	call, ok := events[0].(ToolCall)
	if !ok {
		t.Fatalf("events[0] = %T, want ToolCall", events[0])
	}
	if call.Name != "web_search" || call.ID != "srvtoolu_1" {
		t.Errorf("ToolCall = %+v", call)
	}
	if q, _ := call.Input["query"].(string); q != "airbnb founders" {
		t.Errorf("tool input query = %q", q)
	}

	result, ok := events[1].(ToolResult)
	if !ok {
		t.Fatalf("events[1] = %T, want ToolResult", events[1])
	}
	if result.ID != "srvtoolu_1" || !strings.Contains(result.Content, "Airbnb history") {
		t.Errorf("ToolResult = %+v", result)
	}

	chunk, ok := events[2].(TextChunk)
	if !ok || chunk.Text != "done" {
		t.Errorf("events[2] = %#v, want TextChunk{done}", events[2])
	}
}

func TestAnthropicResearchTurnBudget(t *testing.T) {
	// Every call pauses; the session must stop at the turn budget without error.
	fake := &fakeMessagesAPI{responses: []string{
		textTurn(`<FOUNDERS_PROGRESS>["A"]</FOUNDERS_PROGRESS>`, "pause_turn"),
	}}
	a := withFakeAPI(t, fake)

	cfg := testConfig()
	cfg.MaxTurns = 3

	stream, err := a.Research(context.Background(), types.Company{Name: "Slowpoke"}, cfg)
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	if _, err := drainStream(t, stream); err != nil {
		t.Fatalf("stream error = %v, want normal end", err)
	}

	if fake.calls() != 3 {
		t.Errorf("API calls = %d, want exactly 3", fake.calls())
	}
}

func TestAnthropicResearchPauseThenFinal(t *testing.T) {
	fake := &fakeMessagesAPI{responses: []string{
		textTurn(`<FOUNDERS_PROGRESS>["A"]</FOUNDERS_PROGRESS>`, "pause_turn"),
		textTurn(`<FOUNDERS_FINAL>["A","B"]</FOUNDERS_FINAL>`, "end_turn"),
	}}
	a := withFakeAPI(t, fake)

	stream, err := a.Research(context.Background(), types.Company{Name: "TwoStep"}, testConfig())
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	events, err := drainStream(t, stream)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}

	if fake.calls() != 2 {
		t.Fatalf("API calls = %d, want 2", fake.calls())
	}

	// The resumed call must carry the paused assistant content back.
	second := fake.requests[1]
	if len(second.Messages) != 2 {
		t.Fatalf("second request messages = %d, want 2", len(second.Messages))
	}
	if second.Messages[1].Role != "assistant" {
		t.Errorf("second request role = %q, want assistant", second.Messages[1].Role)
	}

	var text strings.Builder
	for _, ev := range events {
		if chunk, ok := ev.(TextChunk); ok {
			text.WriteString(chunk.Text)
		}
	}
	if !strings.Contains(text.String(), "FOUNDERS_FINAL") {
		t.Errorf("combined text missing final payload: %q", text.String())
	}
}

func TestAnthropicResearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"try later"}}`)
	}))
	defer ts.Close()

	old := anthropicAPIBase
	anthropicAPIBase = ts.URL
	defer func() { anthropicAPIBase = old }()

	a := NewAnthropicAgent(ts.Client())
	stream, err := a.Research(context.Background(), types.Company{Name: "Doomed"}, testConfig())
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	_, err = drainStream(t, stream)
	if err == nil {
		t.Fatal("expected stream error")
	}
	if !strings.Contains(err.Error(), "api error 500") || !strings.Contains(err.Error(), "overloaded_error") {
		t.Errorf("error = %v", err)
	}
}

func TestAnthropicResearchStreamErrorEvent(t *testing.T) {
	body := sse(
		`{"type":"message_start","message":{"role":"assistant"}}`,
		`{"type":"error","error":{"type":"internal_server_error","message":"mid-stream failure"}}`,
	)
	fake := &fakeMessagesAPI{responses: []string{body}}
	a := withFakeAPI(t, fake)

	stream, err := a.Research(context.Background(), types.Company{Name: "Flaky"}, testConfig())
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	_, err = drainStream(t, stream)
	if err == nil || !strings.Contains(err.Error(), "mid-stream failure") {
		t.Errorf("error = %v, want mid-stream failure", err)
	}
}

func TestAnthropicResearchNoAPIKey(t *testing.T) {
	a := NewAnthropicAgent(nil)
	cfg := types.DefaultConfig()

	_, err := a.Research(context.Background(), types.Company{Name: "Keyless"}, cfg)
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("error = %v, want missing key error", err)
	}
}

func TestAnthropicResearchCloseEarly(t *testing.T) {
	// Enough deltas to overrun the stream buffer so the producer must block.
	frames := []string{
		`{"type":"message_start","message":{"role":"assistant"}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
	}
	for i := 0; i < 100; i++ {
		frames = append(frames, `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"x"}}`)
	}
	frames = append(frames,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
	)
	fake := &fakeMessagesAPI{responses: []string{sse(frames...)}}
	a := withFakeAPI(t, fake)

	stream, err := a.Research(context.Background(), types.Company{Name: "Chatty"}, testConfig())
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}

	if _, err := stream.Next(); err != nil {
		t.Fatalf("first Next() error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Closing twice is harmless.
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		provider types.Provider
		wantType string
		wantErr  bool
	}{
		{"default anthropic", types.ProviderAnthropic, "*agent.AnthropicAgent", false},
		{"empty defaults to anthropic", "", "*agent.AnthropicAgent", false},
		{"gemini", types.ProviderGemini, "*agent.GeminiAgent", false},
		{"unknown", "openrouter", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(types.Config{Provider: tt.provider})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := typeName(a); got != tt.wantType {
				t.Errorf("driver = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *AnthropicAgent:
		return "*agent.AnthropicAgent"
	case *GeminiAgent:
		return "*agent.GeminiAgent"
	default:
		return "unknown"
	}
}

func TestGeminiResearchNoAPIKey(t *testing.T) {
	g := NewGeminiAgent()
	cfg := types.Config{Provider: types.ProviderGemini, Model: types.DefaultGeminiModel}

	_, err := g.Research(context.Background(), types.Company{Name: "Keyless"}, cfg)
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("error = %v, want missing key error", err)
	}
}

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		name    string
		company types.Company
		want    []string
		exclude []string
	}{
		{
			name:    "with URL",
			company: types.Company{Name: "Airbnb", URL: "https://www.airbnb.com/"},
			want:    []string{"Find the founders of Airbnb (https://www.airbnb.com/)"},
		},
		{
			name:    "bare name",
			company: types.Company{Name: "Stealth Startup"},
			want:    []string{"Find the founders of Stealth Startup."},
			exclude: []string{"()"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderPrompt(tt.company)
			if err != nil {
				t.Fatalf("RenderPrompt() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("prompt missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.exclude {
				if strings.Contains(got, bad) {
					t.Errorf("prompt should not contain %q:\n%s", bad, got)
				}
			}
		})
	}
}
