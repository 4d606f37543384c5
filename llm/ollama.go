package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"volt/app"
	"volt/provider"
)

type ollamaProvider struct{}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (o *ollamaProvider) StreamChat(ctx context.Context, req *Request) (<-chan StreamChunk, error) {
	model := req.FullModelName
	if model == "" {
		model = req.Model
	}

	// Ollama's generate endpoint takes a single prompt, so a conversation
	// is flattened with role labels.
	var prompt strings.Builder
	for i, m := range req.Messages {
		if len(req.Messages) > 1 && m.Role != "" {
			prompt.WriteString(strings.ToUpper(m.Role[:1]) + m.Role[1:] + ": ")
		}
		prompt.WriteString(m.Content)
		if i < len(req.Messages)-1 {
			prompt.WriteString("\n\n")
		}
	}

	body := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt.String(),
		System: req.System,
		Stream: true,
		Options: map[string]interface{}{
			"temperature":       req.Settings.Temperature,
			"top_p":             req.Settings.TopP,
			"num_predict":       req.Settings.MaxTokens,
			"frequency_penalty": req.Settings.FrequencyPenalty,
			"presence_penalty":  req.Settings.PresencePenalty,
		},
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)

	url := provider.BaseURL() + "/api/generate"
	hreq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(b))
	if err != nil {
		cancel()
		sem.Release(1)
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := http.DefaultClient.Do(hreq)
	app.RecordAPICall("ollama", "POST", url, statusCode(resp), time.Since(start), err)
	if err != nil {
		cancel()
		sem.Release(1)
		return nil, fmt.Errorf("failed to connect to Ollama: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		sem.Release(1)
		return nil, fmt.Errorf("ollama request failed: %d %s", resp.StatusCode, string(msg))
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
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var gr ollamaGenerateResponse
			if err := json.Unmarshal(line, &gr); err != nil {
				// A malformed line does not abort the stream.
				app.Log("llm", "ollama: skipping malformed line: %v", err)
				continue
			}
			if gr.Error != "" {
				send(ctx, out, StreamChunk{Err: fmt.Errorf("ollama: %s", gr.Error)})
				return
			}
			if gr.Response != "" {
				if !send(ctx, out, StreamChunk{Content: gr.Response}) {
					return
				}
			}
			if gr.Done {
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
