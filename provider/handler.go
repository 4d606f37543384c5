package provider

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"volt/app"
)

// ModelsHandler returns the current registry snapshot as JSON.
func ModelsHandler(w http.ResponseWriter, r *http.Request) {
	Refresh(r.Context())
	app.WriteJSON(w, Current(r.Context()))
}

// TagsHandler proxies the local Ollama server's model list.
func TagsHandler(w http.ResponseWriter, r *http.Request) {
	proxyOllama(w, r, "GET", "/api/tags", nil)
}

// PullHandler proxies a model install request to the local Ollama server.
func PullHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		app.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, _ := io.ReadAll(r.Body)
	proxyOllama(w, r, "POST", "/api/pull", body)
}

// DeleteHandler proxies a model removal request to the local Ollama server.
func DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" && r.Method != "POST" {
		app.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, _ := io.ReadAll(r.Body)
	proxyOllama(w, r, "DELETE", "/api/delete", body)
}

func proxyOllama(w http.ResponseWriter, r *http.Request, method, path string, body []byte) {
	url := BaseURL() + path
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(r.Context(), method, url, reader)
	if err != nil {
		app.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	app.RecordAPICall("ollama", method, url, statusOf(resp), time.Since(start), err)
	if err != nil {
		app.WriteError(w, http.StatusBadGateway, "failed to connect to Ollama: "+err.Error())
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)

	// Pull streams NDJSON progress lines; relay them as they arrive.
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// publish swaps in a snapshot directly. Used by tests.
func publish(s *Snapshot) {
	current.Store(s)
}
