// Package gen turns natural language prompts into React components by
// streaming completions from the selected AI provider. It owns the
// generation endpoints: code generation, idea generation, prompt
// refinement, error fixing and validated chat refinement.
package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"volt/app"
	"volt/llm"
	"volt/provider"
)

// DefaultValidator checks generated code before it is accepted.
var DefaultValidator Validator = StructuralValidator{}

// retryDelay separates validation retries. Overridden in tests.
var retryDelay = time.Second

// maxRetries bounds validation retries for chat refinement.
const maxRetries = 2

type generateRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Settings *llm.Settings `json:"settings"`
}

// resolveProvider maps a model id to its adapter, registry entry and
// provider name.
func resolveProvider(ctx context.Context, modelID string) (llm.StreamingChatProvider, provider.Model, string, error) {
	name, model, ok := provider.Resolve(ctx, modelID)
	if !ok {
		return nil, provider.Model{}, "", fmt.Errorf("invalid model selected")
	}
	p, err := llm.ForProvider(name)
	if err != nil {
		return nil, provider.Model{}, "", err
	}
	return p, model, name, nil
}

// stream relays completion chunks to the client, batching writes per the
// provider's flush policy and applying transform to each batch.
func stream(w http.ResponseWriter, r *http.Request, p llm.StreamingChatProvider, req *llm.Request, name string, transform func(string) string) error {
	ch, err := p.StreamChat(r.Context(), req)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	f := llm.NewFlusher(w, llm.PolicyFor(name))
	f.Transform = transform

	for c := range ch {
		if c.Err != nil {
			// Headers are already written; log and cut the stream.
			app.Log("gen", "stream error: %v", c.Err)
			return nil
		}
		if c.Content != "" {
			if err := f.Write(c.Content); err != nil {
				return nil
			}
		}
	}
	f.Close()
	return nil
}

// collect drains a completion into a single string.
func collect(ctx context.Context, p llm.StreamingChatProvider, req *llm.Request) (string, error) {
	ch, err := p.StreamChat(ctx, req)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for c := range ch {
		if c.Err != nil {
			return "", c.Err
		}
		b.WriteString(c.Content)
	}
	return b.String(), nil
}

// GenerateCodeHandler streams a React component for a prompt.
func GenerateCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusUnprocessableEntity, "invalid request: "+err.Error())
		return
	}
	if req.Model == "" || len(req.Messages) == 0 {
		app.WriteError(w, http.StatusUnprocessableEntity, "model and messages are required")
		return
	}

	p, model, name, err := resolveProvider(r.Context(), req.Model)
	if err != nil {
		app.WriteError(w, http.StatusBadRequest, "Invalid model selected")
		return
	}

	settings := llm.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	lreq := &llm.Request{
		Model:         model.ID,
		FullModelName: model.FullModelName,
		System:        codeSystemPrompt + codeOnlySuffix,
		Messages:      req.Messages,
		Settings:      settings,
	}
	if err := stream(w, r, p, lreq, name, RemoveCodeFormatting); err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Error generating code: "+err.Error())
	}
}

// GenerateIdeaHandler streams a short app idea prompt.
func GenerateIdeaHandler(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusUnprocessableEntity, "invalid request: "+err.Error())
		return
	}
	if req.Model == "" {
		app.WriteError(w, http.StatusUnprocessableEntity, "model is required")
		return
	}

	p, model, name, err := resolveProvider(r.Context(), req.Model)
	if err != nil {
		app.WriteError(w, http.StatusBadRequest, "Invalid model selected")
		return
	}

	settings := llm.DefaultSettings()
	settings.Temperature = 0.9
	settings.MaxTokens = 1000
	if req.Settings != nil {
		settings = *req.Settings
	}

	lreq := &llm.Request{
		Model:         model.ID,
		FullModelName: model.FullModelName,
		System:        ideaSystemPrompt,
		Messages:      []llm.Message{{Role: "user", Content: ideaUserPrompt}},
		Settings:      settings,
	}
	if err := stream(w, r, p, lreq, name, nil); err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Error generating idea: "+err.Error())
	}
}

type refineRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// RefinePromptHandler streams an improved version of an app idea prompt.
func RefinePromptHandler(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusUnprocessableEntity, "invalid request: "+err.Error())
		return
	}
	if req.Model == "" || req.Prompt == "" {
		app.WriteError(w, http.StatusUnprocessableEntity, "model and prompt are required")
		return
	}

	p, model, name, err := resolveProvider(r.Context(), req.Model)
	if err != nil {
		app.WriteError(w, http.StatusBadRequest, "Invalid model selected")
		return
	}

	settings := llm.DefaultSettings()
	settings.MaxTokens = 1000

	lreq := &llm.Request{
		Model:         model.ID,
		FullModelName: model.FullModelName,
		System:        refineSystemPrompt,
		Messages:      []llm.Message{{Role: "user", Content: refineUserPrompt(req.Prompt)}},
		Settings:      settings,
	}
	if err := stream(w, r, p, lreq, name, nil); err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Error refining prompt: "+err.Error())
	}
}

type fixRequest struct {
	Model        string `json:"model"`
	Code         string `json:"code"`
	Error        string `json:"error"`
	ErrorDetails *struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"errorDetails"`
}

// FixCodeHandler repairs broken code in two phases: the error is analyzed
// first, then the fix is generated from the analysis and streamed back.
func FixCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Model == "" || req.Code == "" || req.Error == "" {
		app.WriteError(w, http.StatusBadRequest, "model, code and error are required")
		return
	}

	p, model, name, err := resolveProvider(r.Context(), req.Model)
	if err != nil {
		app.WriteError(w, http.StatusBadRequest, "Invalid model selected")
		return
	}

	line, column := parseErrorDetails(req.Error)
	if req.ErrorDetails != nil {
		line, column = req.ErrorDetails.Line, req.ErrorDetails.Column
	}
	ctxText := errorContext(req.Code, req.Error, line, column)

	settings := llm.DefaultSettings()
	settings.Temperature = 0.2

	analysis, err := collect(r.Context(), p, &llm.Request{
		Model:         model.ID,
		FullModelName: model.FullModelName,
		Messages:      []llm.Message{{Role: "user", Content: analysisPrompt(ctxText)}},
		Settings:      settings,
	})
	if err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Error fixing code: "+err.Error())
		return
	}

	lreq := &llm.Request{
		Model:         model.ID,
		FullModelName: model.FullModelName,
		Messages:      []llm.Message{{Role: "user", Content: fixingPrompt(analysis, req.Code)}},
		Settings:      settings,
	}
	if err := stream(w, r, p, lreq, name, RemoveCodeFormatting); err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Error fixing code: "+err.Error())
	}
}

type updateRequest struct {
	Model          string `json:"model"`
	Message        string `json:"message"`
	Code           string `json:"code"`
	OriginalPrompt string `json:"originalPrompt"`
	LastError      string `json:"lastError"`
}

type updateResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Retries     int    `json:"retries"`
}

const fallbackDescription = "I've updated the code according to your request. Would you like me to make any adjustments?"

// UpdateCodeHandler applies a chat refinement to existing code. Unlike the
// streaming endpoints the response is validated server side: invalid
// output is retried with a corrective message at reduced temperature.
func UpdateCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusUnprocessableEntity, "invalid request: "+err.Error())
		return
	}
	if req.Model == "" || req.Message == "" || req.Code == "" {
		app.WriteError(w, http.StatusUnprocessableEntity, "model, message and code are required")
		return
	}

	p, model, _, err := resolveProvider(r.Context(), req.Model)
	if err != nil {
		app.WriteError(w, http.StatusBadRequest, "Invalid model selected")
		return
	}

	messages := []llm.Message{{
		Role:    "user",
		Content: contextualPrompt(req.Message, req.Code, req.OriginalPrompt, req.LastError),
	}}

	var lastIssue error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			messages = append(messages, llm.Message{
				Role:    "user",
				Content: correctivePrompt(lastIssue.Error()),
			})
			time.Sleep(retryDelay)
		}

		settings := llm.DefaultSettings()
		// Each retry samples colder.
		settings.Temperature = 0.7 - 0.1*float64(attempt)
		if settings.Temperature < 0.1 {
			settings.Temperature = 0.1
		}

		raw, err := collect(r.Context(), p, &llm.Request{
			Model:         model.ID,
			FullModelName: model.FullModelName,
			System:        codeSystemPrompt + codeOnlySuffix,
			Messages:      messages,
			Settings:      settings,
		})
		if err != nil {
			app.WriteError(w, http.StatusInternalServerError, "Error updating code: "+err.Error())
			return
		}

		code := CleanCodeText(raw)
		if err := DefaultValidator.Validate(code); err != nil {
			lastIssue = err
			app.Log("gen", "update attempt %d failed validation: %v", attempt+1, err)
			continue
		}

		app.WriteJSON(w, updateResponse{
			Code:        code,
			Description: describeChange(r, p, &model, req.Message, req.Code, code),
			Retries:     attempt,
		})
		return
	}

	app.WriteError(w, http.StatusUnprocessableEntity,
		"Unable to generate valid code. Try describing the specific changes needed, breaking the request into smaller steps, or including any error messages you see. Last issue: "+lastIssue.Error())
}

// describeChange asks the model for a conversational summary of an applied
// refinement. Failures fall back to a canned message rather than failing
// the update.
func describeChange(r *http.Request, p llm.StreamingChatProvider, model *provider.Model, request, original, updated string) string {
	text, err := collect(r.Context(), p, &llm.Request{
		Model:         model.ID,
		FullModelName: model.FullModelName,
		Messages: []llm.Message{{
			Role:    "user",
			Content: descriptionPrompt(request, original, updated),
		}},
		Settings: llm.DefaultSettings(),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			app.Log("gen", "change description failed: %v", err)
		}
		return fallbackDescription
	}
	return strings.TrimSpace(text)
}
