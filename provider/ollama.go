package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"volt/app"
)

// BaseURL returns the Ollama server address.
func BaseURL() string {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:11434"
}

type ollamaModelDetails struct {
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
	Family            string `json:"family"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name       string             `json:"name"`
		Model      string             `json:"model"`
		ModifiedAt string             `json:"modified_at"`
		Size       int64              `json:"size"`
		Details    ollamaModelDetails `json:"details"`
	} `json:"models"`
}

// fetchOllamaModels queries the local Ollama server for installed models.
func fetchOllamaModels(ctx context.Context) ([]Model, error) {
	url := BaseURL() + "/api/tags"
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	app.RecordAPICall("ollama", "GET", url, statusOf(resp), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama tags request failed: %d %s", resp.StatusCode, string(body))
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags response: %v", err)
	}

	var models []Model
	for _, m := range tags.Models {
		models = append(models, Model{
			ID:            m.Name,
			Name:          displayName(m.Name),
			Provider:      Ollama,
			MaxTokens:     maxTokensForSize(m.Details.ParameterSize),
			FullModelName: m.Name,
		})
	}
	return models, nil
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

var paramSizeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// maxTokensForSize buckets a parameter-size string like "7B" into a context
// window. Unparseable sizes fall back to 4096.
func maxTokensForSize(parameterSize string) int {
	match := paramSizeRe.FindString(parameterSize)
	if match == "" {
		return 4096
	}
	size, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 4096
	}
	switch {
	case size <= 3:
		return 4096
	case size <= 7:
		return 8192
	case size <= 13:
		return 16384
	default:
		return 32768
	}
}

var versionRe = regexp.MustCompile(`^([a-zA-Z]+)(\d+\.?\d*)$`)

// displayName prettifies an Ollama model name, e.g. "llama3.2:latest"
// becomes "Llama 3.2".
func displayName(modelName string) string {
	name := strings.TrimSuffix(modelName, ":latest")

	parts := regexp.MustCompile(`[-_:]`).Split(name, -1)
	for i, part := range parts {
		if part == "" {
			continue
		}
		if m := versionRe.FindStringSubmatch(part); m != nil {
			parts[i] = strings.ToUpper(m[1][:1]) + m[1][1:] + " " + m[2]
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}
