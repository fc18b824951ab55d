package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	stripeprovider "github.com/markbates/goth/providers/stripe"

	"github.com/a-steris/paydash/internal/creds"
)

const stripeProviderName = "stripe"

// OAuthConfig configures the Stripe Connect OAuth flow.
type OAuthConfig struct {
	SessionKey    string
	ClientID      string
	ClientSecret  string
	CallbackURL   string
	SecureCookies bool
}

// ConfigureOAuth initializes the gothic session store and the Stripe
// provider. Call once at startup before registering OAuth routes.
func ConfigureOAuth(config OAuthConfig) {
	store := sessions.NewCookieStore([]byte(config.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	goth.UseProviders(
		stripeprovider.New(
			config.ClientID,
			config.ClientSecret,
			config.CallbackURL,
			"read_only",
		),
	)
}

// OAuthRoutes connect a Stripe account without pasting a key: the OAuth
// access token is sealed into the session like any other credential.
type OAuthRoutes struct {
	creds   *creds.Store
	enabled bool
}

func NewOAuthRoutes(store *creds.Store, enabled bool) *OAuthRoutes {
	return &OAuthRoutes{creds: store, enabled: enabled}
}

// RegisterRoutes registers Stripe Connect endpoints.
func (h *OAuthRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/oauth/stripe/connect", h.handleBegin)
	s.GET("/oauth/stripe/callback", h.handleCallback)
}

func (h *OAuthRoutes) handleBegin(c echo.Context) error {
	if !h.enabled {
		return jsonError(c, http.StatusNotFound, "Stripe Connect is not configured")
	}
	gothic.BeginAuthHandler(c.Response(), withProvider(c.Request()))
	return nil
}

func (h *OAuthRoutes) handleCallback(c echo.Context) error {
	if !h.enabled {
		return jsonError(c, http.StatusNotFound, "Stripe Connect is not configured")
	}
	r, w := withProvider(c.Request()), c.Response()

	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Stripe authorization failed: "+err.Error())
	}
	if user.AccessToken == "" {
		return jsonError(c, http.StatusBadRequest, "Stripe authorization returned no access token")
	}
	if err := h.creds.Save(c.Request(), w, creds.KindOAuthToken, user.AccessToken); err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to save Stripe connection")
	}
	return c.Redirect(http.StatusFound, "/")
}

// withProvider pins the gothic provider so the routes need no :provider
// path parameter.
func withProvider(r *http.Request) *http.Request {
	clone := r.Clone(r.Context())
	q := clone.URL.Query()
	q.Set("provider", stripeProviderName)
	clone.URL.RawQuery = q.Encode()
	return clone
}
