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

type googleProvider struct{}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents          []googleContent `json:"contents"`
	SystemInstruction *googleContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		TopP            float64 `json:"topP,omitempty"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func googleBaseURL() string {
	if v := os.Getenv("GOOGLE_BASE_URL"); v != "" {
		return v
	}
	return "https://generativelanguage.googleapis.com"
}

func (g *googleProvider) StreamChat(ctx context.Context, req *Request) (<-chan StreamChunk, error) {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY not set")
	}

	var body googleRequest
	if req.System != "" {
		body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: req.System}}}
	}
	for _, m := range req.Messages {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		body.Contents = append(body.Contents, googleContent{
			Role:  role,
			Parts: []googlePart{{Text: m.Content}},
		})
	}
	body.GenerationConfig.Temperature = req.Settings.Temperature
	body.GenerationConfig.TopP = req.Settings.TopP
	body.GenerationConfig.MaxOutputTokens = req.Settings.MaxTokens

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s",
		googleBaseURL(), req.Model, key)
	hreq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(b))
	if err != nil {
		cancel()
		sem.Release(1)
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := http.DefaultClient.Do(hreq)
	app.RecordAPICall("google", "POST", googleBaseURL(), statusCode(resp), time.Since(start), err)
	if err != nil {
		cancel()
		sem.Release(1)
		return nil, fmt.Errorf("google request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		sem.Release(1)
		return nil, fmt.Errorf("google request failed: %d %s", resp.StatusCode, string(msg))
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
			if data == "" || data == "[DONE]" {
				continue
			}

			var gr googleResponse
			if err := json.Unmarshal([]byte(data), &gr); err != nil {
				app.Log("llm", "google: skipping malformed event: %v", err)
				continue
			}
			if gr.Error.Message != "" {
				send(ctx, out, StreamChunk{Err: fmt.Errorf("google: %s", gr.Error.Message)})
				return
			}
			for _, c := range gr.Candidates {
				for _, p := range c.Content.Parts {
					if p.Text != "" {
						if !send(ctx, out, StreamChunk{Content: p.Text}) {
							return
						}
					}
				}
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
