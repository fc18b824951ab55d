package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/a-steris/paydash/internal/app/domain"
	appservices "github.com/a-steris/paydash/internal/app/services"
	"github.com/a-steris/paydash/internal/creds"
)

const strategyContextKey = "sessionStrategy"

// CredentialGuard resolves the session's sync strategy before a handler
// runs. Requests without usable credentials never reach the handler.
type CredentialGuard struct {
	creds *creds.Store
}

func NewCredentialGuard(store *creds.Store) *CredentialGuard {
	return &CredentialGuard{creds: store}
}

// Require loads and decrypts session credentials and stashes the selected
// strategy in the request context. A decryption failure clears the whole
// session so the user re-enters credentials instead of looping on stale
// ciphertext.
func (g *CredentialGuard) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		strategy, err := g.Strategy(c)
		if err != nil {
			if errors.Is(err, domain.ErrDecryption) {
				_ = g.creds.Clear(c.Request(), c.Response())
				return jsonError(c, http.StatusUnauthorized, "Stored credentials could not be read - please reconnect Stripe")
			}
			return jsonError(c, http.StatusUnauthorized, "No Stripe credentials configured")
		}
		c.Set(strategyContextKey, strategy)
		return next(c)
	}
}

// Strategy decrypts the session's credentials and selects the sync
// strategy. An OAuth access token stands in for an API key when no direct
// key is saved.
func (g *CredentialGuard) Strategy(c echo.Context) (domain.Strategy, error) {
	r := c.Request()

	apiKey, _, err := g.creds.Load(r, creds.KindAPIKey)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		if apiKey, _, err = g.creds.Load(r, creds.KindOAuthToken); err != nil {
			return nil, err
		}
	}
	email, _, err := g.creds.Load(r, creds.KindLoginEmail)
	if err != nil {
		return nil, err
	}
	password, _, err := g.creds.Load(r, creds.KindLoginPassword)
	if err != nil {
		return nil, err
	}
	captchaKey, _, err := g.creds.Load(r, creds.KindCaptchaKey)
	if err != nil {
		return nil, err
	}

	return appservices.SelectStrategy(appservices.SessionCredentials{
		APIKey:     apiKey,
		Email:      email,
		Password:   password,
		CaptchaKey: captchaKey,
	})
}

func strategyFrom(c echo.Context) domain.Strategy {
	strategy, _ := c.Get(strategyContextKey).(domain.Strategy)
	return strategy
}
