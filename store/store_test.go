package store

import (
	"testing"
	"time"
)

func resetDB(t *testing.T) {
	t.Helper()
	ResetForTest(t)
}

func TestGeneratedAppRoundTrip(t *testing.T) {
	resetDB(t)

	a, err := CreateGeneratedApp("gpt-4o-mini", "Build a counter", "export default function App(){return null}")
	if err != nil {
		t.Fatalf("CreateGeneratedApp failed: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := GetGeneratedApp(a.ID)
	if err != nil {
		t.Fatalf("GetGeneratedApp failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected app, got nil")
	}
	if got.Model != "gpt-4o-mini" || got.Prompt != "Build a counter" {
		t.Errorf("unexpected row: %+v", got)
	}

	missing, err := GetGeneratedApp("nope")
	if err != nil {
		t.Fatalf("GetGeneratedApp failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestSavedAppCascadeDelete(t *testing.T) {
	resetDB(t)

	a, err := CreateGeneratedApp("deepseek-chat", "Build a todo list", "export default function App(){return null}")
	if err != nil {
		t.Fatalf("CreateGeneratedApp failed: %v", err)
	}

	if err := UpsertAnalytics(&Analytics{
		AppID:                 a.ID,
		ModelName:             "DeepSeek Chat",
		Provider:              "deepseek",
		PromptTokens:          10,
		ResponseTokens:        20,
		TotalTokens:           30,
		MaxTokens:             32768,
		UtilizationPercentage: "0.09",
	}); err != nil {
		t.Fatalf("UpsertAnalytics failed: %v", err)
	}

	s, err := CreateSavedApp("Todos", "a list", a.ID)
	if err != nil {
		t.Fatalf("CreateSavedApp failed: %v", err)
	}

	views, err := ListSavedApps()
	if err != nil {
		t.Fatalf("ListSavedApps failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 saved app, got %d", len(views))
	}
	if views[0].Analytics == nil || views[0].Analytics.TotalTokens != 30 {
		t.Errorf("expected joined analytics, got %+v", views[0].Analytics)
	}

	if err := DeleteSavedApp(s.ID); err != nil {
		t.Fatalf("DeleteSavedApp failed: %v", err)
	}

	// Saved app, generated app and analytics are all gone
	views, err = ListSavedApps()
	if err != nil {
		t.Fatalf("ListSavedApps failed: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("expected no saved apps after delete, got %d", len(views))
	}
	gone, err := GetGeneratedApp(a.ID)
	if err != nil {
		t.Fatalf("GetGeneratedApp failed: %v", err)
	}
	if gone != nil {
		t.Errorf("expected generated app deleted, got %+v", gone)
	}
	an, err := GetAnalytics(a.ID)
	if err != nil {
		t.Fatalf("GetAnalytics failed: %v", err)
	}
	if an != nil {
		t.Errorf("expected analytics deleted, got %+v", an)
	}
}

func TestDeleteSavedAppMissing(t *testing.T) {
	resetDB(t)

	if err := DeleteSavedApp("unknown"); err == nil {
		t.Error("expected error deleting unknown saved app")
	}
}

func TestAnalyticsUpsertReplaces(t *testing.T) {
	resetDB(t)

	a, err := CreateGeneratedApp("gpt-4o", "Build a clock", "export default function App(){return null}")
	if err != nil {
		t.Fatalf("CreateGeneratedApp failed: %v", err)
	}

	first := &Analytics{AppID: a.ID, ModelName: "GPT-4o", Provider: "openai",
		PromptTokens: 5, ResponseTokens: 5, TotalTokens: 10, MaxTokens: 128000,
		UtilizationPercentage: "0.01"}
	if err := UpsertAnalytics(first); err != nil {
		t.Fatalf("UpsertAnalytics failed: %v", err)
	}

	second := &Analytics{AppID: a.ID, ModelName: "GPT-4o", Provider: "openai",
		PromptTokens: 50, ResponseTokens: 50, TotalTokens: 100, MaxTokens: 128000,
		UtilizationPercentage: "0.08"}
	if err := UpsertAnalytics(second); err != nil {
		t.Fatalf("UpsertAnalytics replace failed: %v", err)
	}

	got, err := GetAnalytics(a.ID)
	if err != nil {
		t.Fatalf("GetAnalytics failed: %v", err)
	}
	if got == nil || got.TotalTokens != 100 {
		t.Errorf("expected replaced analytics, got %+v", got)
	}
}

func TestSharedCodeViews(t *testing.T) {
	resetDB(t)

	expires := time.Now().Add(time.Hour)
	one := 1
	remaining := 1
	err := CreateSharedCode(&SharedCode{
		ID:             "abc123defg",
		Content:        `{"code":"x"}`,
		IsEncrypted:    false,
		ExpiresAt:      &expires,
		AllowedViews:   &one,
		RemainingViews: &remaining,
	})
	if err != nil {
		t.Fatalf("CreateSharedCode failed: %v", err)
	}

	s, err := GetSharedCode("abc123defg")
	if err != nil {
		t.Fatalf("GetSharedCode failed: %v", err)
	}
	if s == nil || s.RemainingViews == nil || *s.RemainingViews != 1 {
		t.Fatalf("unexpected share: %+v", s)
	}

	if err := SetShareRemainingViews(s.ID, 0); err != nil {
		t.Fatalf("SetShareRemainingViews failed: %v", err)
	}

	s, err = GetSharedCode("abc123defg")
	if err != nil {
		t.Fatalf("GetSharedCode failed: %v", err)
	}
	if s.RemainingViews == nil || *s.RemainingViews != 0 {
		t.Errorf("expected 0 remaining views, got %+v", s.RemainingViews)
	}
}
