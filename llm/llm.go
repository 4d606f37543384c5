// Package llm streams chat completions from the configured AI providers.
// Each provider is an adapter behind the StreamingChatProvider interface;
// responses arrive as a channel of chunks so callers can relay output as it
// is produced. Concurrent upstream calls are bounded by a semaphore.
package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"volt/provider"
)

// Message is one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Settings control sampling for a completion. StreamOutput is part of the
// client payload shape; completions are always streamed upstream regardless.
type Settings struct {
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"maxTokens"`
	TopP             float64 `json:"topP"`
	FrequencyPenalty float64 `json:"frequencyPenalty"`
	PresencePenalty  float64 `json:"presencePenalty"`
	StreamOutput     bool    `json:"streamOutput"`
}

// DefaultSettings returns the sampling defaults used for code generation.
func DefaultSettings() Settings {
	return Settings{
		Temperature:  0.7,
		MaxTokens:    4000,
		TopP:         1,
		StreamOutput: true,
	}
}

// StreamChunk is one piece of a streamed completion. Exactly one of
// Content, Err or Done is meaningful; the channel is closed after Done
// or Err is sent.
type StreamChunk struct {
	Content string
	Err     error
	Done    bool
}

// Request describes one completion call.
type Request struct {
	Model         string
	FullModelName string
	System        string
	Messages      []Message
	Settings      Settings
}

// StreamingChatProvider streams a chat completion. Implementations must
// release resources and close the returned channel when the context is
// cancelled.
type StreamingChatProvider interface {
	StreamChat(ctx context.Context, req *Request) (<-chan StreamChunk, error)
}

// At most 5 upstream provider calls in flight at once.
var sem = semaphore.NewWeighted(5)

// llmTimeout caps a single completion call end to end.
var llmTimeout = 5 * time.Minute

// ForProvider returns the adapter for a provider name from the registry.
func ForProvider(name string) (StreamingChatProvider, error) {
	switch name {
	case provider.OpenAI:
		return &openAICompatible{name: provider.OpenAI, keyEnv: "OPENAI_API_KEY", baseEnv: "OPENAI_BASE_URL"}, nil
	case provider.DeepSeek:
		return &openAICompatible{name: provider.DeepSeek, keyEnv: "DEEPSEEK_API_KEY", baseEnv: "DEEPSEEK_BASE_URL", baseURL: "https://api.deepseek.com/v1"}, nil
	case provider.Grok:
		return &openAICompatible{name: provider.Grok, keyEnv: "XAI_API_KEY", baseEnv: "XAI_BASE_URL", baseURL: "https://api.x.ai/v1"}, nil
	case provider.Anthropic:
		return &anthropicProvider{}, nil
	case provider.Google:
		return &googleProvider{}, nil
	case provider.Ollama:
		return &ollamaProvider{}, nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", name)
}
