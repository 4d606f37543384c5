package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"volt/app"
)

// openAICompatible serves OpenAI and the OpenAI-compatible providers
// (DeepSeek, Grok) by pointing the same client at a different base URL.
type openAICompatible struct {
	name    string
	keyEnv  string
	baseEnv string
	baseURL string
}

func (o *openAICompatible) StreamChat(ctx context.Context, req *Request) (<-chan StreamChunk, error) {
	key := os.Getenv(o.keyEnv)
	if key == "" {
		return nil, fmt.Errorf("%s not set", o.keyEnv)
	}

	cfg := openai.DefaultConfig(key)
	if base := os.Getenv(o.baseEnv); base != "" {
		cfg.BaseURL = base
	} else if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)

	start := time.Now()
	stream, err := client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:            req.Model,
		Messages:         messages,
		Stream:           true,
		Temperature:      float32(req.Settings.Temperature),
		MaxTokens:        req.Settings.MaxTokens,
		TopP:             float32(req.Settings.TopP),
		FrequencyPenalty: float32(req.Settings.FrequencyPenalty),
		PresencePenalty:  float32(req.Settings.PresencePenalty),
	})
	app.RecordAPICall(o.name, "POST", cfg.BaseURL+"/chat/completions", 0, time.Since(start), err)
	if err != nil {
		cancel()
		sem.Release(1)
		return nil, fmt.Errorf("%s request failed: %v", o.name, err)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer sem.Release(1)
		defer cancel()
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(ctx, out, StreamChunk{Done: true})
				return
			}
			if err != nil {
				send(ctx, out, StreamChunk{Err: err})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				if !send(ctx, out, StreamChunk{Content: delta}) {
					return
				}
			}
		}
	}()
	return out, nil
}

// send delivers a chunk unless the context is cancelled first.
func send(ctx context.Context, out chan<- StreamChunk, c StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
