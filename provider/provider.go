// Package provider maintains the catalog of selectable AI models and
// resolves a model id to its owning provider. The catalog is an immutable
// snapshot behind an atomic pointer: the Ollama entry is rebuilt by polling
// a local Ollama server and the whole snapshot is republished, so readers
// never observe a half-updated registry.
package provider

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"volt/app"
)

// Provider names
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Google    = "google"
	DeepSeek  = "deepseek"
	Grok      = "grok"
	Ollama    = "ollama"
)

// Model describes one selectable model.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	MaxTokens     int    `json:"maxTokens"`
	FullModelName string `json:"fullModelName,omitempty"`
}

// Snapshot is one immutable view of the registry.
type Snapshot struct {
	Providers map[string][]Model `json:"providers"`
	Enabled   map[string]bool    `json:"enabled"`
	Defaults  map[string]string  `json:"defaults"`
}

// providerOrder fixes resolution order; first matching provider wins.
var providerOrder = []string{OpenAI, Anthropic, Google, DeepSeek, Grok, Ollama}

var current atomic.Pointer[Snapshot]

func staticCatalog() map[string][]Model {
	return map[string][]Model{
		OpenAI: {
			{ID: "gpt-4o", Name: "GPT-4o", Provider: OpenAI, MaxTokens: 128000},
			{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Provider: OpenAI, MaxTokens: 64000},
		},
		Anthropic: {
			{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", Provider: Anthropic, MaxTokens: 200000},
			{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", Provider: Anthropic, MaxTokens: 200000},
			{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Provider: Anthropic, MaxTokens: 200000},
			{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", Provider: Anthropic, MaxTokens: 200000},
			{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Provider: Anthropic, MaxTokens: 200000},
		},
		Google: {
			{ID: "gemini-2.0-flash-exp", Name: "Gemini 2.0 Flash", Provider: Google, MaxTokens: 1000000},
			{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: Google, MaxTokens: 1000000},
			{ID: "gemini-1.5-flash-8b", Name: "Gemini 1.5 Flash-8B", Provider: Google, MaxTokens: 1000000},
			{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: Google, MaxTokens: 1000000},
		},
		DeepSeek: {
			{ID: "deepseek-chat", Name: "DeepSeek Chat", Provider: DeepSeek, MaxTokens: 32768},
			{ID: "deepseek-coder", Name: "DeepSeek Coder", Provider: DeepSeek, MaxTokens: 32768},
		},
		Grok: {
			{ID: "grok-2-1212", Name: "Grok 2", Provider: Grok, MaxTokens: 32768},
		},
		Ollama: {},
	}
}

func apiKeyEnv(provider string) string {
	switch provider {
	case OpenAI:
		return "OPENAI_API_KEY"
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	case Google:
		return "GOOGLE_API_KEY"
	case DeepSeek:
		return "DEEPSEEK_API_KEY"
	case Grok:
		return "XAI_API_KEY"
	}
	return ""
}

// Refresh rebuilds the registry snapshot and publishes it atomically.
// Remote providers are enabled by API key presence; the Ollama entry is
// populated by querying the local server and disabled when unreachable.
func Refresh(ctx context.Context) {
	snap := &Snapshot{
		Providers: staticCatalog(),
		Enabled:   map[string]bool{},
		Defaults: map[string]string{
			OpenAI:    "gpt-4o-mini",
			Anthropic: "claude-3-5-sonnet-20241022",
			Google:    "gemini-2.0-flash-exp",
			DeepSeek:  "deepseek-chat",
			Grok:      "grok-2-1212",
			Ollama:    "",
		},
	}

	for _, p := range []string{OpenAI, Anthropic, Google, DeepSeek, Grok} {
		snap.Enabled[p] = os.Getenv(apiKeyEnv(p)) != ""
	}

	models, err := fetchOllamaModels(ctx)
	if err != nil {
		app.Log("provider", "Ollama unavailable: %v", err)
		snap.Enabled[Ollama] = false
	} else if len(models) > 0 {
		snap.Providers[Ollama] = models
		snap.Defaults[Ollama] = models[0].ID
		snap.Enabled[Ollama] = true
	}

	current.Store(snap)
}

// Current returns the latest registry snapshot, refreshing once if the
// registry has never been populated.
func Current(ctx context.Context) *Snapshot {
	if s := current.Load(); s != nil {
		return s
	}
	Refresh(ctx)
	return current.Load()
}

// Resolve maps a model id to its owning provider and model metadata. The
// registry is refreshed first so a model installed since the last poll
// resolves with its real context window.
// Model ids containing ':' or prefixed with "ollama/" always resolve to the
// Ollama provider; unknown Ollama models get a synthesized 4096-token entry.
func Resolve(ctx context.Context, modelID string) (string, Model, bool) {
	Refresh(ctx)
	snap := Current(ctx)

	if strings.Contains(modelID, ":") || strings.HasPrefix(modelID, "ollama/") {
		for _, m := range snap.Providers[Ollama] {
			if m.ID == modelID {
				return Ollama, m, true
			}
		}
		name := modelID
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[:i]
		}
		return Ollama, Model{ID: modelID, Name: name, Provider: Ollama, MaxTokens: 4096, FullModelName: modelID}, true
	}

	for _, p := range providerOrder {
		for _, m := range snap.Providers[p] {
			if m.ID == modelID {
				return p, m, true
			}
		}
	}
	return "", Model{}, false
}

// StartRefresh launches the background refresh loop.
func StartRefresh(interval time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Second
	}

	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			Refresh(ctx)
			cancel()
			time.Sleep(interval)
		}
	}()
}
