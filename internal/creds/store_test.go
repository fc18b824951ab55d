package creds

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-steris/paydash/internal/vault"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	v, err := vault.New("test-vault-key")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return NewStore("test-session-secret", false, v)
}

// roundTrip applies recorded cookies to a fresh request, simulating the
// browser's next call.
func roundTrip(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestSaveAndLoadCredential(t *testing.T) {
	store := newTestStore(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, KindAPIKey, "sk_test_123"); err != nil {
		t.Fatalf("save: %v", err)
	}

	next := roundTrip(t, rec)
	value, ok, err := store.Load(next, KindAPIKey)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected credential to be present after save")
	}
	if value != "sk_test_123" {
		t.Fatalf("expected decrypted credential, got %q", value)
	}
}

func TestLoadAbsentKind(t *testing.T) {
	store := newTestStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok, err := store.Load(req, KindLoginEmail)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected absent credential on fresh session")
	}
}

func TestClearRemovesAllKinds(t *testing.T) {
	store := newTestStore(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	for _, kind := range []string{KindAPIKey, KindLoginEmail, KindLoginPassword} {
		if err := store.Save(req, rec, kind, "value-"+kind); err != nil {
			t.Fatalf("save %s: %v", kind, err)
		}
	}

	withCreds := roundTrip(t, rec)
	clearRec := httptest.NewRecorder()
	if err := store.Clear(withCreds, clearRec); err != nil {
		t.Fatalf("clear: %v", err)
	}

	cleared := roundTrip(t, clearRec)
	for _, kind := range AllKinds {
		if _, ok, _ := store.Load(cleared, kind); ok {
			t.Fatalf("expected %s to be absent after clear", kind)
		}
	}
}

func TestSavingStripeCredentialInvalidatesVerification(t *testing.T) {
	store := newTestStore(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, KindAPIKey, "sk_test_123"); err != nil {
		t.Fatalf("save: %v", err)
	}

	verifiedReq := roundTrip(t, rec)
	verifiedRec := httptest.NewRecorder()
	if err := store.MarkVerified(verifiedReq, verifiedRec); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	if !store.Verified(roundTrip(t, verifiedRec)) {
		t.Fatal("expected session to be verified")
	}

	resaveReq := roundTrip(t, verifiedRec)
	resaveRec := httptest.NewRecorder()
	if err := store.Save(resaveReq, resaveRec, KindAPIKey, "sk_test_456"); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if store.Verified(roundTrip(t, resaveRec)) {
		t.Fatal("expected verification flag to be dropped after credential change")
	}
}

func TestSaveEmptyValueRemovesKind(t *testing.T) {
	store := newTestStore(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, KindWebhookURL, "https://hooks.slack.com/services/T/B/x"); err != nil {
		t.Fatalf("save: %v", err)
	}

	withURL := roundTrip(t, rec)
	removeRec := httptest.NewRecorder()
	if err := store.Save(withURL, removeRec, KindWebhookURL, "  "); err != nil {
		t.Fatalf("save empty: %v", err)
	}

	if _, ok, _ := store.Load(roundTrip(t, removeRec), KindWebhookURL); ok {
		t.Fatal("expected webhook URL to be removed by empty save")
	}
}
