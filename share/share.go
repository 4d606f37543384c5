// Package share creates expiring, view-limited and optionally
// password-protected links for generated code. Protected shares are stored
// encrypted; the server never keeps the password.
package share

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"volt/app"
	"volt/store"
)

// shareIDLength keeps links short but unguessable.
const shareIDLength = 10

type shareRequest struct {
	Code         string                 `json:"code"`
	Prompt       string                 `json:"prompt"`
	Model        string                 `json:"model"`
	Settings     map[string]interface{} `json:"settings"`
	Password     string                 `json:"password"`
	ExpiresIn    int                    `json:"expiresIn"`
	AllowedViews int                    `json:"allowedViews"`
	GenerateQR   bool                   `json:"generateQR"`
}

type shareContent struct {
	Code     string                 `json:"code"`
	Prompt   string                 `json:"prompt"`
	Model    string                 `json:"model"`
	Settings map[string]interface{} `json:"settings"`
}

type shareResponse struct {
	ID          string     `json:"id"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	QRCode      string     `json:"qrCode,omitempty"`
	IsProtected bool       `json:"isProtected"`
}

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8081"
}

// Handler creates share links on POST and resolves them on GET.
func Handler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "POST":
		create(w, r)
	case "GET":
		resolve(w, r)
	default:
		app.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func create(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.WriteError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Code == "" || req.Model == "" {
		app.WriteError(w, http.StatusBadRequest, "code and model are required")
		return
	}

	id, err := gonanoid.New(shareIDLength)
	if err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Failed to create share link")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresIn) * time.Hour)
		expiresAt = &t
	}

	content, err := json.Marshal(shareContent{
		Code:     req.Code,
		Prompt:   req.Prompt,
		Model:    req.Model,
		Settings: req.Settings,
	})
	if err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Failed to create share link")
		return
	}

	stored := string(content)
	if req.Password != "" {
		stored, err = Encrypt(stored, req.Password)
		if err != nil {
			app.Log("share", "encryption failed: %v", err)
			app.WriteError(w, http.StatusInternalServerError, "Failed to create share link")
			return
		}
	}

	var allowedViews, remainingViews *int
	if req.AllowedViews > 0 {
		n := req.AllowedViews
		m := req.AllowedViews
		allowedViews, remainingViews = &n, &m
	}

	if err := store.CreateSharedCode(&store.SharedCode{
		ID:             id,
		Content:        stored,
		IsEncrypted:    req.Password != "",
		ExpiresAt:      expiresAt,
		AllowedViews:   allowedViews,
		RemainingViews: remainingViews,
	}); err != nil {
		app.Log("share", "failed to create share: %v", err)
		app.WriteError(w, http.StatusInternalServerError, "Failed to create share link")
		return
	}

	resp := shareResponse{ID: id, ExpiresAt: expiresAt, IsProtected: req.Password != ""}
	if req.GenerateQR {
		if qr, err := qrDataURL(baseURL() + "/share/" + id); err == nil {
			resp.QRCode = qr
		} else {
			app.Log("share", "qr generation failed: %v", err)
		}
	}
	app.WriteJSON(w, resp)
}

func resolve(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	password := r.URL.Query().Get("password")

	if id == "" {
		app.WriteError(w, http.StatusBadRequest, "Share ID required")
		return
	}

	s, err := store.GetSharedCode(id)
	if err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Failed to retrieve share")
		return
	}
	if s == nil {
		app.WriteError(w, http.StatusNotFound, "Share not found")
		return
	}

	if s.ExpiresAt != nil && s.ExpiresAt.Before(time.Now()) {
		app.WriteError(w, http.StatusGone, "Share link has expired")
		return
	}
	if s.RemainingViews != nil && *s.RemainingViews <= 0 {
		app.WriteError(w, http.StatusGone, "Maximum views reached")
		return
	}

	if s.IsEncrypted && password == "" {
		app.WriteStatusJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":            "Password required",
			"requiresPassword": true,
		})
		return
	}

	content := s.Content
	if s.IsEncrypted {
		content, err = Decrypt(s.Content, password)
		if err != nil {
			app.WriteError(w, http.StatusUnauthorized, "Invalid password")
			return
		}
	}

	if s.RemainingViews != nil {
		if err := store.SetShareRemainingViews(id, *s.RemainingViews-1); err != nil {
			app.Log("share", "failed to update view count: %v", err)
		}
	}

	var parsed shareContent
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		app.WriteError(w, http.StatusInternalServerError, "Failed to retrieve share")
		return
	}

	app.WriteJSON(w, map[string]interface{}{
		"content":        parsed,
		"expiresAt":      s.ExpiresAt,
		"remainingViews": s.RemainingViews,
	})
}
