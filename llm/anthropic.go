package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"volt/app"
)

type anthropicProvider struct{}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	TopP        float64            `json:"top_p,omitempty"`
	Stream      bool               `json:"stream"`
}

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func anthropicBaseURL() string {
	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
		return v
	}
	return "https://api.anthropic.com"
}

func (a *anthropicProvider) StreamChat(ctx context.Context, req *Request) (<-chan StreamChunk, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	maxTokens := req.Settings.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4000
	}

	body := anthropicRequest{
		Model:       req.Model,
		System:      req.System,
		MaxTokens:   maxTokens,
		Temperature: req.Settings.Temperature,
		TopP:        req.Settings.TopP,
		Stream:      true,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)

	url := anthropicBaseURL() + "/v1/messages"
	hreq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(b))
	if err != nil {
		cancel()
		sem.Release(1)
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("x-api-key", key)
	hreq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := http.DefaultClient.Do(hreq)
	app.RecordAPICall("anthropic", "POST", url, statusCode(resp), time.Since(start), err)
	if err != nil {
		cancel()
		sem.Release(1)
		return nil, fmt.Errorf("anthropic request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		sem.Release(1)
		return nil, fmt.Errorf("anthropic request failed: %d %s", resp.StatusCode, string(msg))
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer sem.Release(1)
		defer cancel()
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				continue
			}

			var ev anthropicEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				app.Log("llm", "anthropic: skipping malformed event: %v", err)
				continue
			}

			switch ev.Type {
			case "content_block_delta":
				if ev.Delta.Text != "" {
					if !send(ctx, out, StreamChunk{Content: ev.Delta.Text}) {
						return
					}
				}
			case "error":
				send(ctx, out, StreamChunk{Err: fmt.Errorf("anthropic: %s", ev.Error.Message)})
				return
			case "message_stop":
				send(ctx, out, StreamChunk{Done: true})
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, out, StreamChunk{Err: err})
			return
		}
		send(ctx, out, StreamChunk{Done: true})
	}()
	return out, nil
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
