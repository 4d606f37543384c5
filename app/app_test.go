package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLogRingBuffer(t *testing.T) {
	for i := 0; i < sysLogMaxEntries+10; i++ {
		Log("test", "entry %d", i)
	}

	entries := GetSysLog()
	if len(entries) != sysLogMaxEntries {
		t.Fatalf("expected %d entries, got %d", sysLogMaxEntries, len(entries))
	}
	// Newest first
	if entries[0].Message != fmt.Sprintf("entry %d", sysLogMaxEntries+9) {
		t.Errorf("unexpected newest entry: %q", entries[0].Message)
	}
}

func TestRecordAPICall(t *testing.T) {
	RecordAPICall("openai", "POST", "https://api.openai.com/v1/chat/completions",
		200, 120*time.Millisecond, nil)
	RecordAPICall("ollama", "GET", "http://localhost:11434/api/tags",
		0, time.Millisecond, errors.New("connection refused"))

	calls := GetAPILog()
	if len(calls) < 2 {
		t.Fatalf("expected at least 2 calls, got %d", len(calls))
	}
	if calls[0].Provider != "ollama" || calls[0].Error == "" {
		t.Errorf("unexpected newest call: %+v", calls[0])
	}
}

func TestStatusHandler(t *testing.T) {
	Log("test", "status check")

	w := httptest.NewRecorder()
	StatusHandler(w, httptest.NewRequest("GET", "/status", nil))

	var resp struct {
		Uptime string            `json:"uptime"`
		Log    []json.RawMessage `json:"log"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if resp.Uptime == "" {
		t.Error("expected uptime")
	}
	if len(resp.Log) == 0 {
		t.Error("expected log entries")
	}
	if len(resp.Log) > 100 {
		t.Errorf("log should be capped at 100, got %d", len(resp.Log))
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := string(Render([]byte("# Title\n\nsome *text*")))
	if out == "" || out == "# Title" {
		t.Errorf("expected rendered html, got %q", out)
	}
	page := RenderHTML("API", "docs", out)
	if page == "" {
		t.Error("expected full page")
	}
}
