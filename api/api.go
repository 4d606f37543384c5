// Package api documents the HTTP surface and serves the rendered docs.
package api

import (
	"fmt"
	"net/http"
	"sync"

	"volt/app"
)

type Endpoint struct {
	Name        string
	Path        string
	Method      string
	Params      []*Param
	Response    []*Value
	Description string
}

type Param struct {
	Name        string
	Value       string
	Description string
}

type Value struct {
	Type   string
	Params []*Param
}

var Endpoints = []*Endpoint{{
	Name:        "Generate Code",
	Path:        "/api/generateCode",
	Method:      "POST",
	Description: "Stream a standalone React component for a natural language prompt",
	Params: []*Param{
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id, e.g. gpt-4o-mini or llama3.2:latest",
		},
		{
			Name:        "messages",
			Value:       "array",
			Description: "Conversation messages; [{'role': 'user', 'content': xxx}]",
		},
		{
			Name:        "settings",
			Value:       "object",
			Description: "Optional sampling settings: temperature, maxTokens, topP, frequencyPenalty, presencePenalty",
		},
	},
	Response: []*Value{
		{
			Type: "Stream",
			Params: []*Param{
				{
					Name:        "body",
					Value:       "text",
					Description: "The generated code, streamed as plain text with markdown fences stripped",
				},
			},
		},
	},
}, {
	Name:        "Generate Idea",
	Path:        "/api/generateIdea",
	Method:      "POST",
	Description: "Stream a short app idea prompt",
	Params: []*Param{
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id",
		},
	},
	Response: []*Value{
		{
			Type: "Stream",
			Params: []*Param{
				{
					Name:        "body",
					Value:       "text",
					Description: "An idea of the form 'Build me a [type] app that ...'",
				},
			},
		},
	},
}, {
	Name:        "Refine Prompt",
	Path:        "/api/refinePrompt",
	Method:      "POST",
	Description: "Stream an improved, more specific version of an app idea prompt",
	Params: []*Param{
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id",
		},
		{
			Name:        "prompt",
			Value:       "string",
			Description: "The prompt to refine",
		},
	},
	Response: []*Value{
		{
			Type: "Stream",
			Params: []*Param{
				{
					Name:        "body",
					Value:       "text",
					Description: "The refined prompt",
				},
			},
		},
	},
}, {
	Name:        "Fix Code",
	Path:        "/api/fixCode",
	Method:      "POST",
	Description: "Analyze a runtime error and stream corrected code",
	Params: []*Param{
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id",
		},
		{
			Name:        "code",
			Value:       "string",
			Description: "The broken code",
		},
		{
			Name:        "error",
			Value:       "string",
			Description: "The error message, optionally with line/column info",
		},
	},
	Response: []*Value{
		{
			Type: "Stream",
			Params: []*Param{
				{
					Name:        "body",
					Value:       "text",
					Description: "The fixed code",
				},
			},
		},
	},
}, {
	Name:        "Update Code",
	Path:        "/api/updateCode",
	Method:      "POST",
	Description: "Apply a chat refinement to existing code, validated server side with retries",
	Params: []*Param{
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id",
		},
		{
			Name:        "message",
			Value:       "string",
			Description: "The requested change",
		},
		{
			Name:        "code",
			Value:       "string",
			Description: "The current code",
		},
		{
			Name:        "originalPrompt",
			Value:       "string",
			Description: "The prompt the code was generated from",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "code",
					Value:       "string",
					Description: "The updated, validated code",
				},
				{
					Name:        "description",
					Value:       "string",
					Description: "A conversational summary of what changed",
				},
				{
					Name:        "retries",
					Value:       "number",
					Description: "Validation retries that were needed",
				},
			},
		},
	},
}, {
	Name:        "Token Analytics",
	Path:        "/api/tokenAnalytics",
	Method:      "POST",
	Description: "Estimate and record token usage for a generated app",
	Params: []*Param{
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id",
		},
		{
			Name:        "prompt",
			Value:       "string",
			Description: "The prompt text",
		},
		{
			Name:        "generatedCode",
			Value:       "string",
			Description: "The generated code",
		},
		{
			Name:        "generatedAppId",
			Value:       "string",
			Description: "The generated app to attach analytics to",
		},
		{
			Name:        "ollamaResponse",
			Value:       "string",
			Description: "Optional raw Ollama stream for exact token counts",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "totalTokens",
					Value:       "number",
					Description: "Prompt plus response tokens",
				},
				{
					Name:        "utilizationPercentage",
					Value:       "string",
					Description: "Context window utilization with two decimals",
				},
			},
		},
	},
}, {
	Name:        "Record Generation",
	Path:        "/api/generated-apps",
	Method:      "POST",
	Description: "Record a completed generation",
	Params: []*Param{
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id",
		},
		{
			Name:        "prompt",
			Value:       "string",
			Description: "The prompt",
		},
		{
			Name:        "code",
			Value:       "string",
			Description: "The generated code",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "id",
					Value:       "string",
					Description: "The generated app id",
				},
			},
		},
	},
}, {
	Name:        "Saved Generations",
	Path:        "/api/saved-generations",
	Method:      "GET",
	Description: "List bookmarked generations, newest first, with analytics",
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "apps",
					Value:       "array",
					Description: "Saved apps with code, model, prompt and analytics",
				},
			},
		},
	},
}, {
	Name:        "Save Generation",
	Path:        "/api/saved-generations",
	Method:      "POST",
	Description: "Bookmark a generated app",
	Params: []*Param{
		{
			Name:        "title",
			Value:       "string",
			Description: "Bookmark title",
		},
		{
			Name:        "description",
			Value:       "string",
			Description: "Optional description",
		},
		{
			Name:        "generatedAppId",
			Value:       "string",
			Description: "The generated app to bookmark",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "id",
					Value:       "string",
					Description: "The bookmark id",
				},
			},
		},
	},
}, {
	Name:        "Delete Generation",
	Path:        "/api/saved-generations?id={id}",
	Method:      "DELETE",
	Description: "Delete a bookmark together with its generation and analytics",
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "success",
					Value:       "boolean",
					Description: "Whether the generation was deleted",
				},
			},
		},
	},
}, {
	Name:        "Create Share",
	Path:        "/api/share",
	Method:      "POST",
	Description: "Create an expiring, view-limited, optionally password-protected share link",
	Params: []*Param{
		{
			Name:        "code",
			Value:       "string",
			Description: "The code to share",
		},
		{
			Name:        "prompt",
			Value:       "string",
			Description: "The originating prompt",
		},
		{
			Name:        "model",
			Value:       "string",
			Description: "Model id",
		},
		{
			Name:        "password",
			Value:       "string",
			Description: "Optional password; content is stored encrypted when set",
		},
		{
			Name:        "expiresIn",
			Value:       "number",
			Description: "Optional lifetime in hours",
		},
		{
			Name:        "allowedViews",
			Value:       "number",
			Description: "Optional maximum number of views",
		},
		{
			Name:        "generateQR",
			Value:       "boolean",
			Description: "Return a QR code data URL for the link",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "id",
					Value:       "string",
					Description: "The share id",
				},
				{
					Name:        "qrCode",
					Value:       "string",
					Description: "QR code data URL when requested",
				},
			},
		},
	},
}, {
	Name:        "Resolve Share",
	Path:        "/api/share?id={id}&password={password}",
	Method:      "GET",
	Description: "Resolve a share link, decrementing its view count",
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "content",
					Value:       "object",
					Description: "The shared code, prompt, model and settings",
				},
				{
					Name:        "remainingViews",
					Value:       "number",
					Description: "Views left before the link dies",
				},
			},
		},
	},
}, {
	Name:        "Models",
	Path:        "/api/models",
	Method:      "GET",
	Description: "The model registry: all selectable models grouped by provider",
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "providers",
					Value:       "object",
					Description: "Models per provider with id, name and maxTokens",
				},
				{
					Name:        "enabled",
					Value:       "object",
					Description: "Which providers are usable right now",
				},
				{
					Name:        "defaults",
					Value:       "object",
					Description: "Default model per provider",
				},
			},
		},
	},
}, {
	Name:        "Pull Model",
	Path:        "/api/pullModel",
	Method:      "POST",
	Description: "Install a model on the local Ollama server, relaying progress",
	Params: []*Param{
		{
			Name:        "name",
			Value:       "string",
			Description: "Model name, e.g. llama3.2",
		},
	},
	Response: []*Value{
		{
			Type: "Stream",
			Params: []*Param{
				{
					Name:        "body",
					Value:       "ndjson",
					Description: "Ollama pull progress lines",
				},
			},
		},
	},
}}

var renderOnce sync.Once
var rendered string

// Register an endpoint
func Register(ep *Endpoint) {
	Endpoints = append(Endpoints, ep)
}

// Handler serves the rendered API documentation.
func Handler(w http.ResponseWriter, r *http.Request) {
	renderOnce.Do(func() {
		html := string(app.Render([]byte(Markdown())))
		rendered = app.RenderHTML("API", "Volt API documentation", html)
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(rendered))
}

// Markdown API document
func Markdown() string {
	var data string

	data += "# API Documentation\n\n"
	data += "The API is unauthenticated and intended to run locally. Provider\n"
	data += "access is configured through environment variables: OPENAI_API_KEY,\n"
	data += "ANTHROPIC_API_KEY, GOOGLE_API_KEY, DEEPSEEK_API_KEY, XAI_API_KEY\n"
	data += "and OLLAMA_BASE_URL.\n\n"
	data += "---\n\n"
	data += "## Endpoints\n\n"

	for _, endpoint := range Endpoints {
		data += "## " + endpoint.Name
		data += fmt.Sprintln()
		data += fmt.Sprintln()
		data += fmt.Sprintln(endpoint.Description)
		data += fmt.Sprintln()
		data += fmt.Sprintf("```%s %s```", endpoint.Method, endpoint.Path)
		data += fmt.Sprintln()

		if endpoint.Params != nil {
			data += fmt.Sprintln("#### Request")
			data += fmt.Sprintln()
			data += fmt.Sprintln("Format: JSON")
			data += fmt.Sprintln()
			data += "| Field | Type | Description |"
			data += fmt.Sprintln()
			data += "| ----- | ---- | ----------- |"
			data += fmt.Sprintln()

			for _, param := range endpoint.Params {
				data += fmt.Sprintf("|	%s	|	%s	|	%s	|", param.Name, param.Value, param.Description)
				data += fmt.Sprintln()
			}
			data += fmt.Sprintln()
		}

		if endpoint.Response != nil {
			data += fmt.Sprintln("#### Response")
			data += fmt.Sprintln()
			for _, resp := range endpoint.Response {
				data += fmt.Sprintln()
				data += fmt.Sprintf("Format: %s", resp.Type)
				data += fmt.Sprintln()
				data += "| Field | Type | Description |"
				data += fmt.Sprintln()
				data += "| ----- | ---- | ----------- |"
				data += fmt.Sprintln()
				for _, param := range resp.Params {
					data += fmt.Sprintf("|	%s	|	%s	|	%s	|", param.Name, param.Value, param.Description)
					data += fmt.Sprintln()
				}
			}
			data += fmt.Sprintln()
		}

		data += fmt.Sprintln()
	}

	return data
}
