package app

import (
	"net/http"
	"time"
)

var started = time.Now()

// StatusHandler reports server uptime plus the recent system and API logs.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	type logLine struct {
		Time    string `json:"time"`
		Package string `json:"package"`
		Message string `json:"message"`
	}
	type apiLine struct {
		Time     string `json:"time"`
		Provider string `json:"provider"`
		Method   string `json:"method"`
		URL      string `json:"url"`
		Status   int    `json:"status"`
		Duration string `json:"duration"`
		Error    string `json:"error,omitempty"`
	}

	var logs []logLine
	for _, e := range GetSysLog() {
		logs = append(logs, logLine{
			Time:    e.Time.Format(time.RFC3339),
			Package: e.Package,
			Message: e.Message,
		})
		if len(logs) >= 100 {
			break
		}
	}

	var calls []apiLine
	for _, e := range GetAPILog() {
		calls = append(calls, apiLine{
			Time:     e.Time.Format(time.RFC3339),
			Provider: e.Provider,
			Method:   e.Method,
			URL:      e.URL,
			Status:   e.Status,
			Duration: e.Duration.String(),
			Error:    e.Error,
		})
		if len(calls) >= 100 {
			break
		}
	}

	WriteJSON(w, map[string]interface{}{
		"uptime":   time.Since(started).Round(time.Second).String(),
		"log":      logs,
		"apiCalls": calls,
	})
}
