package services

import (
	"errors"
	"testing"

	"github.com/a-steris/paydash/internal/app/domain"
)

func TestSelectStrategyPrefersAPIKey(t *testing.T) {
	strategy, err := SelectStrategy(SessionCredentials{
		APIKey:   "sk_test_1",
		Email:    "a@b.c",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	api, ok := strategy.(domain.APIStrategy)
	if !ok {
		t.Fatalf("expected APIStrategy, got %T", strategy)
	}
	if api.Key != "sk_test_1" {
		t.Fatalf("unexpected key: %q", api.Key)
	}
}

func TestSelectStrategyLoginOnly(t *testing.T) {
	strategy, err := SelectStrategy(SessionCredentials{
		Email:      "a@b.c",
		Password:   "pw",
		CaptchaKey: "ac-key",
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	browser, ok := strategy.(domain.BrowserStrategy)
	if !ok {
		t.Fatalf("expected BrowserStrategy, got %T", strategy)
	}
	if browser.CaptchaKey != "ac-key" {
		t.Fatalf("expected captcha key carried on browser strategy, got %q", browser.CaptchaKey)
	}
}

func TestSelectStrategyMissingCredentials(t *testing.T) {
	for _, creds := range []SessionCredentials{
		{},
		{Email: "a@b.c"},
		{Password: "pw"},
	} {
		if _, err := SelectStrategy(creds); !errors.Is(err, domain.ErrCredentialMissing) {
			t.Fatalf("expected ErrCredentialMissing for %+v, got %v", creds, err)
		}
	}
}
