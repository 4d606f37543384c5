// Package analytics estimates token usage for generated apps and records
// it per app. OpenAI-family providers are counted with a real BPE
// tokenizer; the rest use provider-specific heuristics, and Ollama reports
// exact counts in its stream stats.
package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"volt/app"
	"volt/provider"
)

var (
	encOnce sync.Once
	encoder *tiktoken.Tiktoken
)

// bpeCount counts tokens with the cl100k_base encoding. Falls back to the
// character heuristic when the encoding cannot be loaded (e.g. offline).
func bpeCount(text string) int {
	encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			app.Log("analytics", "tokenizer unavailable, using heuristic: %v", err)
			return
		}
		encoder = enc
	})
	if encoder == nil {
		return charEstimate(text)
	}
	return len(encoder.Encode(text, nil, nil))
}

func charEstimate(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}

// EstimateTokens approximates the token count of text for a provider.
func EstimateTokens(text, providerName string) int {
	if text == "" {
		return 0
	}
	switch providerName {
	case provider.OpenAI, provider.DeepSeek, provider.Grok:
		return bpeCount(text)
	case provider.Anthropic:
		return int(math.Ceil(float64(bpeCount(text)) * 1.1))
	case provider.Google, provider.Ollama:
		return charEstimate(text)
	}
	return 0
}

// OllamaStats are the exact token counts reported at the end of an Ollama
// generate stream.
type OllamaStats struct {
	PromptTokens   int
	ResponseTokens int
	TotalTokens    int
}

// ParseOllamaStats extracts token counts from a raw NDJSON generate
// stream. The stats live on the final object; it must carry a
// total_duration field to count.
func ParseOllamaStats(raw string) (*OllamaStats, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var last map[string]interface{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, fmt.Errorf("malformed stream line: %v", err)
		}
		last = obj
	}
	if last == nil {
		return nil, fmt.Errorf("empty stream")
	}
	if _, ok := last["total_duration"]; !ok {
		return nil, fmt.Errorf("stream has no completion stats")
	}

	stats := &OllamaStats{
		PromptTokens:   intField(last, "prompt_eval_count"),
		ResponseTokens: intField(last, "eval_count"),
	}
	stats.TotalTokens = stats.PromptTokens + stats.ResponseTokens
	return stats, nil
}

func intField(m map[string]interface{}, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

// Utilization formats token usage as a percentage of the context window
// with two decimals.
func Utilization(totalTokens, maxTokens int) string {
	if maxTokens <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(totalTokens)/float64(maxTokens)*100)
}
