package analytics

import (
	"encoding/json"
	"net/http"

	"volt/app"
	"volt/provider"
	"volt/store"
)

type analyticsRequest struct {
	Model          string `json:"model"`
	GeneratedCode  string `json:"generatedCode"`
	Prompt         string `json:"prompt"`
	GeneratedAppID string `json:"generatedAppId"`
	OllamaResponse string `json:"ollamaResponse"`
}

type analyticsResponse struct {
	ModelName             string `json:"modelName"`
	Provider              string `json:"provider"`
	PromptTokens          int    `json:"promptTokens"`
	ResponseTokens        int    `json:"responseTokens"`
	TotalTokens           int    `json:"totalTokens"`
	MaxTokens             int    `json:"maxTokens"`
	UtilizationPercentage string `json:"utilizationPercentage"`
}

// Handler computes and stores token analytics for one generated app.
func Handler(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		app.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Model == "" || req.GeneratedCode == "" || req.Prompt == "" || req.GeneratedAppID == "" {
		app.WriteStatusJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Missing required fields",
			"details": map[string]bool{
				"hasModel":  req.Model != "",
				"hasCode":   req.GeneratedCode != "",
				"hasPrompt": req.Prompt != "",
				"hasAppId":  req.GeneratedAppID != "",
			},
		})
		return
	}

	name, model, ok := provider.Resolve(r.Context(), req.Model)
	if !ok {
		app.WriteError(w, http.StatusBadRequest, "Invalid model selected")
		return
	}

	var promptTokens, responseTokens int
	if name == provider.Ollama && req.OllamaResponse != "" {
		if stats, err := ParseOllamaStats(req.OllamaResponse); err == nil {
			promptTokens = stats.PromptTokens
			responseTokens = stats.ResponseTokens
		} else {
			app.Log("analytics", "falling back to estimation: %v", err)
		}
	}
	if promptTokens == 0 && responseTokens == 0 {
		promptTokens = EstimateTokens(req.Prompt, name)
		responseTokens = EstimateTokens(req.GeneratedCode, name)
	}
	totalTokens := promptTokens + responseTokens

	utilization := Utilization(totalTokens, model.MaxTokens)

	err := store.UpsertAnalytics(&store.Analytics{
		AppID:                 req.GeneratedAppID,
		ModelName:             model.Name,
		Provider:              name,
		PromptTokens:          promptTokens,
		ResponseTokens:        responseTokens,
		TotalTokens:           totalTokens,
		MaxTokens:             model.MaxTokens,
		UtilizationPercentage: utilization,
	})
	if err != nil {
		app.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	app.WriteJSON(w, analyticsResponse{
		ModelName:             model.Name,
		Provider:              name,
		PromptTokens:          promptTokens,
		ResponseTokens:        responseTokens,
		TotalTokens:           totalTokens,
		MaxTokens:             model.MaxTokens,
		UtilizationPercentage: utilization,
	})
}
