package generate_test

// Notes:
// - Tests use black-box approach via package generate_test
// - Uses httptest.Server to mock the Messages API
// - Retry delays are set to 1ms to keep tests fast
// - Attempt counts are the observable contract: 3 for retryable failures,
//   1 for definite client errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/podscribe/internal/apierr"
	"github.com/alnah/podscribe/internal/generate"
)

// ---------------------------------------------------------------------------
// Helpers - Messages API mock server
// ---------------------------------------------------------------------------

type scripted struct {
	status int
	body   any
	delay  time.Duration
}

type anthropicCall struct {
	Path    string
	APIKey  string
	Version string
	Body    map[string]any
}

// mockAnthropicServer replays scripted responses in order and repeats the
// last one once the script runs out.
type mockAnthropicServer struct {
	*httptest.Server
	mu     sync.Mutex
	calls  []anthropicCall
	script []scripted
}

func newMockAnthropicServer(t *testing.T, script ...scripted) *mockAnthropicServer {
	t.Helper()

	m := &mockAnthropicServer{script: script}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		m.mu.Lock()
		idx := len(m.calls)
		m.calls = append(m.calls, anthropicCall{
			Path:    r.URL.Path,
			APIKey:  r.Header.Get("x-api-key"),
			Version: r.Header.Get("anthropic-version"),
			Body:    body,
		})
		resp := m.script[min(idx, len(m.script)-1)]
		m.mu.Unlock()

		if resp.delay > 0 {
			select {
			case <-time.After(resp.delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		switch b := resp.body.(type) {
		case string:
			_, _ = w.Write([]byte(b))
		default:
			_ = json.NewEncoder(w).Encode(b)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockAnthropicServer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockAnthropicServer) lastCall() anthropicCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

func messagesOK(texts ...string) scripted {
	blocks := make([]map[string]any, len(texts))
	for i, text := range texts {
		blocks[i] = map[string]any{"type": "text", "text": text}
	}
	return scripted{status: http.StatusOK, body: map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"content":     blocks,
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	}}
}

func messagesError(status int, errType, message string) scripted {
	return scripted{status: status, body: map[string]any{
		"type":  "error",
		"error": map[string]any{"type": errType, "message": message},
	}}
}

func newTestAnthropic(t *testing.T, url string, opts ...generate.Option) *generate.AnthropicClient {
	t.Helper()

	opts = append([]generate.Option{
		generate.WithBaseURL(url),
		generate.WithRetryDelays(time.Millisecond, 5*time.Millisecond),
	}, opts...)
	c, err := generate.NewAnthropicClient("test-key", opts...)
	if err != nil {
		t.Fatalf("NewAnthropicClient() error = %v", err)
	}
	return c
}

// ---------------------------------------------------------------------------
// TestNewAnthropicClient
// ---------------------------------------------------------------------------

func TestNewAnthropicClient_EmptyKey(t *testing.T) {
	t.Parallel()

	c, err := generate.NewAnthropicClient("")
	if !errors.Is(err, generate.ErrEmptyAPIKey) {
		t.Errorf("error = %v, want ErrEmptyAPIKey", err)
	}
	if c != nil {
		t.Error("client should be nil on error")
	}
}

// ---------------------------------------------------------------------------
// TestAnthropicClient_Generate - Request shape and success path
// ---------------------------------------------------------------------------

func TestAnthropicClient_Generate_Success(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t, messagesOK("Hello, ", "world."))
	c := newTestAnthropic(t, server.URL, generate.WithModel("claude-test"))

	got, err := c.Generate(context.Background(), generate.Request{
		System: "Format the transcript.",
		User:   "raw text",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Hello, world." {
		t.Errorf("Generate() = %q, want %q", got, "Hello, world.")
	}

	call := server.lastCall()
	if call.Path != "/v1/messages" {
		t.Errorf("path = %q, want /v1/messages", call.Path)
	}
	if call.APIKey != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", call.APIKey)
	}
	if call.Version == "" {
		t.Error("anthropic-version header missing")
	}
	if call.Body["model"] != "claude-test" {
		t.Errorf("model = %v, want claude-test", call.Body["model"])
	}
	if call.Body["system"] != "Format the transcript." {
		t.Errorf("system = %v", call.Body["system"])
	}
	if call.Body["max_tokens"] != float64(16000) {
		t.Errorf("max_tokens = %v, want default 16000", call.Body["max_tokens"])
	}
	msgs, _ := call.Body["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v, want one user message", call.Body["messages"])
	}
	if msg, _ := msgs[0].(map[string]any); msg["role"] != "user" || msg["content"] != "raw text" {
		t.Errorf("message = %v, want user/raw text", msg)
	}
}

func TestAnthropicClient_Generate_RequestMaxTokens(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t, messagesOK("ok"))
	c := newTestAnthropic(t, server.URL, generate.WithMaxTokens(8000))

	if _, err := c.Generate(context.Background(), generate.Request{User: "x", MaxTokens: 2048}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := server.lastCall().Body["max_tokens"]; got != float64(2048) {
		t.Errorf("max_tokens = %v, want 2048", got)
	}

	if _, err := c.Generate(context.Background(), generate.Request{User: "x"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := server.lastCall().Body["max_tokens"]; got != float64(8000) {
		t.Errorf("max_tokens = %v, want client default 8000", got)
	}
}

// ---------------------------------------------------------------------------
// TestAnthropicClient_Generate_Retry - Attempt counts per failure class
// ---------------------------------------------------------------------------

func TestAnthropicClient_Generate_Retry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		script    []scripted
		wantErr   error
		wantCalls int
		wantText  string
	}{
		{
			name:      "persistent 500 uses three attempts",
			script:    []scripted{messagesError(500, "api_error", "boom")},
			wantErr:   apierr.ErrServer,
			wantCalls: 3,
		},
		{
			name:      "persistent 529 overloaded uses three attempts",
			script:    []scripted{messagesError(529, "overloaded_error", "Overloaded")},
			wantErr:   apierr.ErrServer,
			wantCalls: 3,
		},
		{
			name:      "400 is not retried",
			script:    []scripted{messagesError(400, "invalid_request_error", "bad")},
			wantErr:   apierr.ErrBadRequest,
			wantCalls: 1,
		},
		{
			name:      "401 is not retried",
			script:    []scripted{messagesError(401, "authentication_error", "invalid x-api-key")},
			wantErr:   apierr.ErrAuthFailed,
			wantCalls: 1,
		},
		{
			name:      "403 is not retried",
			script:    []scripted{messagesError(403, "permission_error", "denied")},
			wantErr:   apierr.ErrAuthFailed,
			wantCalls: 1,
		},
		{
			name:      "429 then success",
			script:    []scripted{messagesError(429, "rate_limit_error", "slow down"), messagesOK("done")},
			wantCalls: 2,
			wantText:  "done",
		},
		{
			name:      "two 500s then success",
			script:    []scripted{messagesError(500, "api_error", "a"), messagesError(502, "api_error", "b"), messagesOK("done")},
			wantCalls: 3,
			wantText:  "done",
		},
		{
			name:      "408 is retried",
			script:    []scripted{{status: 408, body: "request timeout"}},
			wantErr:   apierr.ErrTimeout,
			wantCalls: 3,
		},
		{
			name:      "empty content is terminal",
			script:    []scripted{messagesOK()},
			wantErr:   generate.ErrEmptyResponse,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newMockAnthropicServer(t, tt.script...)
			c := newTestAnthropic(t, server.URL)

			got, err := c.Generate(context.Background(), generate.Request{User: "x"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Generate() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got != tt.wantText {
				t.Errorf("Generate() = %q, want %q", got, tt.wantText)
			}
			if n := server.callCount(); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestAnthropicClient_Generate_APIErrorDetails(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t, messagesError(400, "invalid_request_error", "max_tokens too large"))
	c := newTestAnthropic(t, server.URL)

	_, err := c.Generate(context.Background(), generate.Request{User: "x"})

	var apiErr *generate.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError in chain", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Type != "invalid_request_error" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "max_tokens too large") {
		t.Errorf("error %q should carry the provider message", err)
	}
}

func TestAnthropicClient_Generate_AttemptTimeout(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t,
		scripted{status: 200, body: "{}", delay: 2 * time.Second},
		messagesOK("recovered"),
	)
	c := newTestAnthropic(t, server.URL, generate.WithAttemptTimeout(50*time.Millisecond))

	got, err := c.Generate(context.Background(), generate.Request{User: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("Generate() = %q, want recovered", got)
	}
	if n := server.callCount(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestAnthropicClient_Generate_AttemptTimeoutExhausted(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t, scripted{status: 200, body: "{}", delay: 2 * time.Second})
	c := newTestAnthropic(t, server.URL, generate.WithAttemptTimeout(20*time.Millisecond))

	_, err := c.Generate(context.Background(), generate.Request{User: "x"})
	if !errors.Is(err, apierr.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if n := server.callCount(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestAnthropicClient_Generate_TransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestAnthropic(t, url)
	_, err := c.Generate(context.Background(), generate.Request{User: "x"})
	if !errors.Is(err, apierr.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	if !strings.Contains(err.Error(), "max retries (2) exceeded") {
		t.Errorf("error %q should report exhausted retries", err)
	}
}

func TestAnthropicClient_Generate_TruncatedBody(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t,
		scripted{status: http.StatusOK, body: `{"content":[{"type":"text","te`},
		messagesOK("## Intro"),
	)
	c := newTestAnthropic(t, server.URL)

	got, err := c.Generate(context.Background(), generate.Request{User: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "## Intro" {
		t.Errorf("Generate() = %q, want %q", got, "## Intro")
	}
	if n := server.callCount(); n != 2 {
		t.Errorf("calls = %d, want 2 (truncated body retried)", n)
	}
}

func TestAnthropicClient_Generate_Canceled(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t, messagesOK("unused"))
	c := newTestAnthropic(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, generate.Request{User: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if n := server.callCount(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestAnthropicClient_Generate_NonJSONError(t *testing.T) {
	t.Parallel()

	server := newMockAnthropicServer(t, scripted{status: 404, body: "not found\n"})
	c := newTestAnthropic(t, server.URL)

	_, err := c.Generate(context.Background(), generate.Request{User: "x"})

	var apiErr *generate.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != "not found" {
		t.Errorf("Message = %q, want raw body trimmed", apiErr.Message)
	}
	if !errors.Is(err, apierr.ErrBadRequest) {
		t.Errorf("error = %v, want ErrBadRequest", err)
	}
}
