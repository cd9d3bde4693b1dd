package anthropic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/llm"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := New(config.ProviderConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "claude-test",
		MaxTokens: 512,
	}, server.Client(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

var testSchema = llm.Schema{
	Name:        "recommend_tv_shows",
	Description: "tv shows",
	Document:    json.RawMessage(`{"type":"object"}`),
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(config.ProviderConfig{Model: "m"}, nil, zerolog.Nop())
	var ce *llm.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("New() error = %v, want ConfigError", err)
	}
	if !errors.Is(err, llm.ErrAPIKeyMissing) {
		t.Errorf("New() error = %v, want ErrAPIKeyMissing", err)
	}
}

func TestCompleteReturnsToolInput(t *testing.T) {
	var captured messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != apiVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"model": "claude-test",
			"stop_reason": "tool_use",
			"content": [{"type":"tool_use","name":"recommend_tv_shows","input":{"tv_shows":[{"name":"X","first_air_date":"2020-01-01","language":"en-US"}]}}],
			"usage": {"input_tokens": 10, "output_tokens": 20}
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	got, err := c.Complete(context.Background(), llm.Instruction{System: "sys", User: "usr"}, testSchema)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if !got.IsStructured() {
		t.Fatalf("Complete() returned text %q, want structured payload", got.Text)
	}
	if got.Usage.OutputTokens != 20 {
		t.Errorf("Usage.OutputTokens = %d, want 20", got.Usage.OutputTokens)
	}
	if captured.System != "sys" || captured.Messages[0].Content != "usr" {
		t.Errorf("request directives = %q / %q", captured.System, captured.Messages[0].Content)
	}
	if captured.ToolChoice == nil || captured.ToolChoice.Name != "recommend_tv_shows" {
		t.Errorf("tool_choice = %+v, want forced recommend_tv_shows", captured.ToolChoice)
	}
	if len(captured.Tools) != 1 || string(captured.Tools[0].InputSchema) != `{"type":"object"}` {
		t.Errorf("tools = %+v", captured.Tools)
	}
}

func TestCompleteFallsBackToText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"tv_shows\":[]}"}]}`))
	}))
	defer server.Close()

	got, err := newTestClient(t, server).Complete(context.Background(), llm.Instruction{}, testSchema)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.IsStructured() || got.Text != `{"tv_shows":[]}` {
		t.Errorf("Complete() = %+v, want text fallback", got)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`, llm.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, `{}`, llm.ErrRateLimited},
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, llm.ErrAPIError},
		{"empty", http.StatusOK, `{"content":[]}`, llm.ErrEmptyCompletion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server).Complete(context.Background(), llm.Instruction{}, testSchema)
			if !llm.IsProviderError(err) {
				t.Fatalf("Complete() error = %v, want ProviderError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Complete() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"claude-test"}]}`))
	}))
	defer server.Close()

	if err := newTestClient(t, server).Test(context.Background()); err != nil {
		t.Errorf("Test() error = %v", err)
	}
}
