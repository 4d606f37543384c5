package share

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"volt/store"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := `{"code":"export default function App(){return null}","model":"gpt-4o"}`

	enc, err := Encrypt(plain, "hunter2")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !strings.Contains(enc, ":") {
		t.Fatalf("expected iv:cipher format, got %q", enc)
	}
	if enc == plain {
		t.Fatal("content not encrypted")
	}

	dec, err := Decrypt(enc, "hunter2")
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if dec != plain {
		t.Errorf("round trip mismatch: %q", dec)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	enc, err := Encrypt("secret content", "right")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(enc, "wrong"); err == nil {
		t.Error("expected error with wrong password")
	}
	if _, err := Decrypt("garbage", "right"); err == nil {
		t.Error("expected error on malformed input")
	}
}

func createShare(t *testing.T, body string) shareResponse {
	t.Helper()
	w := httptest.NewRecorder()
	Handler(w, httptest.NewRequest("POST", "/api/share", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var resp shareResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestShareFlow(t *testing.T) {
	store.ResetForTest(t)

	resp := createShare(t, `{"code":"export default function App(){return null}","prompt":"p","model":"gpt-4o","settings":{}}`)
	if len(resp.ID) != shareIDLength {
		t.Errorf("unexpected share id %q", resp.ID)
	}
	if resp.IsProtected {
		t.Error("share should not be protected")
	}

	w := httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id="+resp.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "export default function App()") {
		t.Errorf("missing shared code in %q", w.Body.String())
	}
}

func TestShareNotFound(t *testing.T) {
	store.ResetForTest(t)

	w := httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id=missing1234", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSharePasswordProtection(t *testing.T) {
	store.ResetForTest(t)

	resp := createShare(t, `{"code":"secret code","prompt":"p","model":"gpt-4o","settings":{},"password":"hunter2"}`)
	if !resp.IsProtected {
		t.Fatal("expected protected share")
	}

	// No password
	w := httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id="+resp.ID, nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "requiresPassword") {
		t.Errorf("expected requiresPassword flag, got %q", w.Body.String())
	}

	// Wrong password
	w = httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id="+resp.ID+"&password=wrong", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	// Correct password
	w = httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id="+resp.ID+"&password=hunter2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "secret code") {
		t.Errorf("missing decrypted content in %q", w.Body.String())
	}
}

func TestShareViewLimit(t *testing.T) {
	store.ResetForTest(t)

	resp := createShare(t, `{"code":"x","prompt":"p","model":"gpt-4o","settings":{},"allowedViews":1}`)

	w := httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id="+resp.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first view status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id="+resp.ID, nil))
	if w.Code != http.StatusGone {
		t.Errorf("second view status = %d, want 410", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Maximum views reached") {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
}

func TestShareExpiry(t *testing.T) {
	store.ResetForTest(t)

	expired := time.Now().Add(-time.Hour)
	if err := store.CreateSharedCode(&store.SharedCode{
		ID:        "expired123",
		Content:   `{"code":"x","model":"gpt-4o"}`,
		ExpiresAt: &expired,
	}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	Handler(w, httptest.NewRequest("GET", "/api/share?id=expired123", nil))
	if w.Code != http.StatusGone {
		t.Errorf("status = %d, want 410", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Share link has expired") {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
}

func TestShareQRCode(t *testing.T) {
	store.ResetForTest(t)

	resp := createShare(t, `{"code":"x","prompt":"p","model":"gpt-4o","settings":{},"generateQR":true}`)
	if !strings.HasPrefix(resp.QRCode, "data:image/png;base64,") {
		t.Errorf("expected QR data URL, got %.40q", resp.QRCode)
	}
}
