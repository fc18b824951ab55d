package routes

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/a-steris/paydash/internal/app/domain"
	"github.com/a-steris/paydash/internal/creds"
)

func guardedEcho(store *creds.Store) *echo.Echo {
	e := echo.New()
	guard := NewCredentialGuard(store)
	e.GET("/api/probe", func(c echo.Context) error {
		switch strategyFrom(c).(type) {
		case domain.APIStrategy:
			return c.String(http.StatusOK, "api")
		case domain.BrowserStrategy:
			return c.String(http.StatusOK, "browser")
		default:
			return c.String(http.StatusInternalServerError, "none")
		}
	}, guard.Require)
	return e
}

func TestGuardRejectsMissingCredentials(t *testing.T) {
	store := newTestCredsStore(t)
	e := guardedEcho(store)

	rec := doJSON(t, e, http.MethodGet, "/api/probe", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}
}

func TestGuardSelectsAPIStrategy(t *testing.T) {
	store := newTestCredsStore(t)
	e := guardedEcho(store)
	cookies := seedSession(t, store, map[string]string{creds.KindAPIKey: "sk_test_123"})

	rec := doJSON(t, e, http.MethodGet, "/api/probe", "", cookies)
	if rec.Code != http.StatusOK || rec.Body.String() != "api" {
		t.Fatalf("expected api strategy, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardSelectsBrowserStrategyWithoutKey(t *testing.T) {
	store := newTestCredsStore(t)
	e := guardedEcho(store)
	cookies := seedSession(t, store, map[string]string{
		creds.KindLoginEmail:    "owner@example.com",
		creds.KindLoginPassword: "hunter2",
	})

	rec := doJSON(t, e, http.MethodGet, "/api/probe", "", cookies)
	if rec.Code != http.StatusOK || rec.Body.String() != "browser" {
		t.Fatalf("expected browser strategy, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardOAuthTokenActsAsAPIKey(t *testing.T) {
	store := newTestCredsStore(t)
	e := guardedEcho(store)
	cookies := seedSession(t, store, map[string]string{creds.KindOAuthToken: "sk_oauth_token"})

	rec := doJSON(t, e, http.MethodGet, "/api/probe", "", cookies)
	if rec.Code != http.StatusOK || rec.Body.String() != "api" {
		t.Fatalf("expected api strategy from oauth token, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardIsIdempotentAcrossRequests(t *testing.T) {
	store := newTestCredsStore(t)
	e := guardedEcho(store)
	cookies := seedSession(t, store, map[string]string{creds.KindAPIKey: "sk_test_123"})

	for i := 0; i < 3; i++ {
		rec := doJSON(t, e, http.MethodGet, "/api/probe", "", cookies)
		if rec.Code != http.StatusOK || rec.Body.String() != "api" {
			t.Fatalf("request %d: expected stable result, got %d %q", i, rec.Code, rec.Body.String())
		}
	}
}
