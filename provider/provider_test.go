package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockTags serves a fixed Ollama /api/tags response.
func mockTags(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Setenv("OLLAMA_BASE_URL", srv.URL)
	t.Cleanup(srv.Close)
	return srv
}

func TestMaxTokensForSize(t *testing.T) {
	cases := []struct {
		size string
		want int
	}{
		{"1B", 4096},
		{"3B", 4096},
		{"3.2B", 8192},
		{"7B", 8192},
		{"13B", 16384},
		{"70B", 32768},
		{"", 4096},
		{"unknown", 4096},
	}
	for _, c := range cases {
		if got := maxTokensForSize(c.size); got != c.want {
			t.Errorf("maxTokensForSize(%q) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"llama3.2:latest", "Llama 3.2"},
		{"codellama:7b", "Codellama 7b"},
		{"deepseek-coder", "Deepseek Coder"},
		{"mistral", "Mistral"},
	}
	for _, c := range cases {
		if got := displayName(c.in); got != c.want {
			t.Errorf("displayName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolveStaticModels(t *testing.T) {
	mockTags(t, `{"models":[]}`)

	p, m, ok := Resolve(context.Background(), "gpt-4o")
	if !ok || p != OpenAI || m.MaxTokens != 128000 {
		t.Errorf("gpt-4o resolved to (%q, %+v, %v)", p, m, ok)
	}

	p, m, ok = Resolve(context.Background(), "claude-3-5-sonnet-20241022")
	if !ok || p != Anthropic || m.MaxTokens != 200000 {
		t.Errorf("claude resolved to (%q, %+v, %v)", p, m, ok)
	}

	if _, _, ok := Resolve(context.Background(), "made-up-model"); ok {
		t.Error("expected unknown model to not resolve")
	}
}

func TestResolveOllamaSynthesis(t *testing.T) {
	mockTags(t, `{"models":[]}`)

	// Colon ids always belong to Ollama even when not in the registry.
	p, m, ok := Resolve(context.Background(), "llama3.2:latest")
	if !ok || p != Ollama {
		t.Fatalf("expected ollama resolution, got (%q, %v)", p, ok)
	}
	if m.MaxTokens != 4096 || m.FullModelName != "llama3.2:latest" {
		t.Errorf("unexpected synthesized model: %+v", m)
	}

	p, m, ok = Resolve(context.Background(), "ollama/mistral")
	if !ok || p != Ollama || m.Name != "mistral" {
		t.Errorf("ollama/ prefix resolved to (%q, %+v, %v)", p, m, ok)
	}
}

func TestResolveRefreshesOllama(t *testing.T) {
	// A stale snapshot without the model must not win: resolution polls the
	// Ollama server first, so the installed 7B model gets its bucketed
	// context window rather than the synthesized fallback.
	publish(&Snapshot{Providers: staticCatalog()})
	mockTags(t, `{"models":[{"name":"llama3.2:latest","model":"llama3.2:latest","details":{"parameter_size":"7B"}}]}`)

	p, m, ok := Resolve(context.Background(), "llama3.2:latest")
	if !ok || p != Ollama {
		t.Fatalf("expected ollama resolution, got (%q, %v)", p, ok)
	}
	if m.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", m.MaxTokens)
	}
	if m.FullModelName != "llama3.2:latest" {
		t.Errorf("FullModelName = %q", m.FullModelName)
	}
}
