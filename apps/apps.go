// Package apps exposes persistence endpoints for generation results: every
// completed generation is recorded, and users can bookmark, list and delete
// the ones they want to keep.
package apps

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mrz1836/go-sanitize"

	"volt/app"
	"volt/store"
)

type createGeneratedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Code   string `json:"code"`
}

// GeneratedHandler records a completed generation.
func GeneratedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		app.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createGeneratedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Model == "" || req.Prompt == "" || req.Code == "" {
		app.WriteError(w, http.StatusBadRequest, "model, prompt and code are required")
		return
	}

	a, err := store.CreateGeneratedApp(req.Model, req.Prompt, req.Code)
	if err != nil {
		app.Log("apps", "failed to save generated app: %v", err)
		app.WriteError(w, http.StatusInternalServerError, "Failed to save generated app")
		return
	}
	app.WriteJSON(w, a)
}

type saveRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	GeneratedAppID string `json:"generatedAppId"`
}

// SavedHandler manages bookmarks: GET lists them, POST creates one and
// DELETE removes one together with its generation and analytics.
func SavedHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		listSaved(w, r)
	case "POST":
		createSaved(w, r)
	case "DELETE":
		deleteSaved(w, r)
	default:
		app.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func listSaved(w http.ResponseWriter, r *http.Request) {
	views, err := store.ListSavedApps()
	if err != nil {
		app.Log("apps", "failed to list saved apps: %v", err)
		app.WriteError(w, http.StatusInternalServerError, "Failed to fetch saved generations")
		return
	}
	if views == nil {
		views = []*store.SavedAppView{}
	}
	app.WriteJSON(w, views)
}

func createSaved(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	// Titles and descriptions are user input rendered elsewhere.
	title := sanitize.XSS(strings.TrimSpace(req.Title))
	description := sanitize.XSS(strings.TrimSpace(req.Description))

	if title == "" || req.GeneratedAppID == "" {
		app.WriteError(w, http.StatusBadRequest, "title and generatedAppId are required")
		return
	}

	generated, err := store.GetGeneratedApp(req.GeneratedAppID)
	if err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Failed to save generation")
		return
	}
	if generated == nil {
		app.WriteError(w, http.StatusNotFound, "Generated app not found")
		return
	}

	s, err := store.CreateSavedApp(title, description, req.GeneratedAppID)
	if err != nil {
		app.Log("apps", "failed to save generation: %v", err)
		app.WriteError(w, http.StatusInternalServerError, "Failed to save generation")
		return
	}
	app.WriteJSON(w, s)
}

func deleteSaved(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		app.WriteError(w, http.StatusBadRequest, "Missing generation ID")
		return
	}

	if err := store.DeleteSavedApp(id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			app.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		app.Log("apps", "failed to delete generation: %v", err)
		app.WriteError(w, http.StatusInternalServerError, "Failed to delete generation")
		return
	}
	app.WriteJSON(w, map[string]bool{"success": true})
}
