package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func collect(t *testing.T, ch <-chan StreamChunk) (string, bool) {
	t.Helper()
	var text string
	var done bool
	for c := range ch {
		if c.Err != nil {
			t.Fatalf("unexpected stream error: %v", c.Err)
		}
		if c.Done {
			done = true
		}
		text += c.Content
	}
	return text, done
}

func TestOllamaStreamChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"response":"export default ","done":false}`)
		fmt.Fprintln(w, `not json at all`)
		fmt.Fprintln(w, `{"response":"function App(){return null}","done":false}`)
		fmt.Fprintln(w, `{"done":true,"total_duration":1000,"prompt_eval_count":12,"eval_count":34}`)
	}))
	defer srv.Close()
	os.Setenv("OLLAMA_BASE_URL", srv.URL)
	defer os.Unsetenv("OLLAMA_BASE_URL")

	p := &ollamaProvider{}
	ch, err := p.StreamChat(context.Background(), &Request{
		Model:    "llama3.2:latest",
		Messages: []Message{{Role: "user", Content: "Build a counter"}},
		Settings: DefaultSettings(),
	})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	text, done := collect(t, ch)
	if text != "export default function App(){return null}" {
		t.Errorf("unexpected stream text: %q", text)
	}
	if !done {
		t.Error("expected done chunk")
	}
}

func TestOllamaStreamChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()
	os.Setenv("OLLAMA_BASE_URL", srv.URL)
	defer os.Unsetenv("OLLAMA_BASE_URL")

	p := &ollamaProvider{}
	ch, err := p.StreamChat(context.Background(), &Request{Model: "nope:latest"})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var streamErr error
	for c := range ch {
		if c.Err != nil {
			streamErr = c.Err
		}
	}
	if streamErr == nil {
		t.Fatal("expected stream error")
	}
}

func TestAnthropicStreamChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("unexpected api key %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\n")
		fmt.Fprint(w, "data: {\"type\":\"message_start\"}\n\n")
		fmt.Fprint(w, "event: content_block_delta\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"export default \"}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"null\"}}\n\n")
		fmt.Fprint(w, "event: message_stop\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer srv.Close()
	os.Setenv("ANTHROPIC_BASE_URL", srv.URL)
	os.Setenv("ANTHROPIC_API_KEY", "test-key")
	defer os.Unsetenv("ANTHROPIC_BASE_URL")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	p := &anthropicProvider{}
	ch, err := p.StreamChat(context.Background(), &Request{
		Model:    "claude-3-5-sonnet-20241022",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	text, done := collect(t, ch)
	if text != "export default null" {
		t.Errorf("unexpected stream text: %q", text)
	}
	if !done {
		t.Error("expected done chunk")
	}
}

func TestSettingsPayloadShape(t *testing.T) {
	var s Settings
	payload := `{"temperature":0.5,"maxTokens":2000,"topP":0.9,"frequencyPenalty":0.1,"presencePenalty":0.2,"streamOutput":true}`
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !s.StreamOutput {
		t.Error("streamOutput not decoded")
	}
	if s.Temperature != 0.5 || s.MaxTokens != 2000 {
		t.Errorf("unexpected settings: %+v", s)
	}
	if !DefaultSettings().StreamOutput {
		t.Error("expected streaming on by default")
	}
}

func TestForProviderUnknown(t *testing.T) {
	if _, err := ForProvider("smalltalk"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestMissingAPIKey(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")

	p, err := ForProvider("openai")
	if err != nil {
		t.Fatalf("ForProvider failed: %v", err)
	}
	if _, err := p.StreamChat(context.Background(), &Request{Model: "gpt-4o"}); err == nil {
		t.Error("expected missing key error")
	}
}
