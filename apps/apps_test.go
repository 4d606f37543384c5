package apps

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"volt/store"
)

func TestSaveListDeleteFlow(t *testing.T) {
	store.ResetForTest(t)

	// Record a generation
	body := `{"model":"gpt-4o-mini","prompt":"Build me a counter app","code":"export default function App(){return null}"}`
	w := httptest.NewRecorder()
	GeneratedHandler(w, httptest.NewRequest("POST", "/api/generated-apps", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("generated-apps status = %d, body %s", w.Code, w.Body.String())
	}
	var generated store.GeneratedApp
	if err := json.Unmarshal(w.Body.Bytes(), &generated); err != nil {
		t.Fatal(err)
	}

	// Bookmark it
	save := fmt.Sprintf(`{"title":"Counter","description":"a counter","generatedAppId":%q}`, generated.ID)
	w = httptest.NewRecorder()
	SavedHandler(w, httptest.NewRequest("POST", "/api/saved-generations", strings.NewReader(save)))
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", w.Code, w.Body.String())
	}
	var saved store.SavedApp
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}

	// List
	w = httptest.NewRecorder()
	SavedHandler(w, httptest.NewRequest("GET", "/api/saved-generations", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var views []store.SavedAppView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].Title != "Counter" {
		t.Fatalf("unexpected list: %+v", views)
	}

	// Delete
	w = httptest.NewRecorder()
	SavedHandler(w, httptest.NewRequest("DELETE", "/api/saved-generations?id="+saved.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	SavedHandler(w, httptest.NewRequest("GET", "/api/saved-generations", nil))
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected empty list after delete, got %q", got)
	}
}

func TestSaveUnknownGeneration(t *testing.T) {
	store.ResetForTest(t)

	body := `{"title":"Ghost","generatedAppId":"does-not-exist"}`
	w := httptest.NewRecorder()
	SavedHandler(w, httptest.NewRequest("POST", "/api/saved-generations", strings.NewReader(body)))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSaveSanitizesTitle(t *testing.T) {
	store.ResetForTest(t)

	a, err := store.CreateGeneratedApp("gpt-4o", "p", "export default function App(){return null}")
	if err != nil {
		t.Fatal(err)
	}

	body := fmt.Sprintf(`{"title":"My App<script>alert(1)</script>","generatedAppId":%q}`, a.ID)
	w := httptest.NewRecorder()
	SavedHandler(w, httptest.NewRequest("POST", "/api/saved-generations", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Errorf("expected script tags stripped, got %q", w.Body.String())
	}
}

func TestDeleteMissingID(t *testing.T) {
	store.ResetForTest(t)

	w := httptest.NewRecorder()
	SavedHandler(w, httptest.NewRequest("DELETE", "/api/saved-generations", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
