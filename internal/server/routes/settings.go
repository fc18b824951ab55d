package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/a-steris/paydash/internal/app/ports"
	"github.com/a-steris/paydash/internal/creds"
)

// SettingsRoutes manages session credentials: saving, status and teardown.
// Credential values only ever travel in POST bodies and are sealed before
// they touch the session cookie.
type SettingsRoutes struct {
	creds *creds.Store
	api   ports.StripeAPI
}

func NewSettingsRoutes(store *creds.Store, api ports.StripeAPI) *SettingsRoutes {
	return &SettingsRoutes{creds: store, api: api}
}

// RegisterRoutes registers settings endpoints.
func (h *SettingsRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/api/settings/stripe", h.handleSaveStripe)
	s.POST("/api/settings/webhook", h.handleSaveWebhook)
	s.GET("/api/settings/status", h.handleStatus)
	s.POST("/api/settings/clear", h.handleClear)
	s.POST("/api/logout", h.handleLogout)
}

type stripeSettingsRequest struct {
	APIKey     string `json:"api_key" form:"api_key"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	CaptchaKey string `json:"captcha_key" form:"captcha_key"`
}

// handleSaveStripe saves either an API key or login credentials. API keys
// are verified against the upstream before they are accepted; login
// credentials can only be proven by a sync attempt, so they save as-is.
func (h *SettingsRoutes) handleSaveStripe(c echo.Context) error {
	var req stripeSettingsRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	r, w := c.Request(), c.Response()

	switch {
	case strings.TrimSpace(req.APIKey) != "":
		if err := h.api.Verify(r.Context(), strings.TrimSpace(req.APIKey)); err != nil {
			return jsonError(c, http.StatusBadRequest, err.Error())
		}
		if err := h.creds.Save(r, w, creds.KindAPIKey, req.APIKey); err != nil {
			return jsonError(c, http.StatusInternalServerError, "failed to save credentials")
		}
		if err := h.creds.MarkVerified(r, w); err != nil {
			return jsonError(c, http.StatusInternalServerError, "failed to save credentials")
		}
		return jsonOK(c, http.StatusOK, map[string]any{"message": "API key verified and saved"})

	case strings.TrimSpace(req.Email) != "" && strings.TrimSpace(req.Password) != "":
		for kind, value := range map[string]string{
			creds.KindLoginEmail:    req.Email,
			creds.KindLoginPassword: req.Password,
			creds.KindCaptchaKey:    req.CaptchaKey,
		} {
			if err := h.creds.Save(r, w, kind, value); err != nil {
				return jsonError(c, http.StatusInternalServerError, "failed to save credentials")
			}
		}
		return jsonOK(c, http.StatusOK, map[string]any{"message": "Login credentials saved"})

	default:
		return jsonError(c, http.StatusBadRequest, "Provide an API key or login email and password")
	}
}

type webhookSettingsRequest struct {
	WebhookURL string `json:"webhook_url" form:"webhook_url"`
}

func (h *SettingsRoutes) handleSaveWebhook(c echo.Context) error {
	var req webhookSettingsRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	url := strings.TrimSpace(req.WebhookURL)
	if url != "" && !strings.HasPrefix(url, "https://") {
		return jsonError(c, http.StatusBadRequest, "webhook URL must use https")
	}
	if err := h.creds.Save(c.Request(), c.Response(), creds.KindWebhookURL, url); err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to save webhook URL")
	}
	return jsonOK(c, http.StatusOK, map[string]any{"message": "Webhook URL saved"})
}

// handleStatus reports which credential kinds are present. Values never
// leave the session, only presence flags.
func (h *SettingsRoutes) handleStatus(c echo.Context) error {
	r := c.Request()
	has := func(kind string) bool {
		_, ok, err := h.creds.Load(r, kind)
		return err == nil && ok
	}
	return jsonOK(c, http.StatusOK, map[string]any{
		"has_api_key": has(creds.KindAPIKey) || has(creds.KindOAuthToken),
		"has_login":   has(creds.KindLoginEmail) && has(creds.KindLoginPassword),
		"has_webhook": has(creds.KindWebhookURL),
		"verified":    h.creds.Verified(r),
	})
}

func (h *SettingsRoutes) handleClear(c echo.Context) error {
	var req struct {
		Kinds []string `json:"kinds" form:"kinds"`
	}
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.creds.Clear(c.Request(), c.Response(), req.Kinds...); err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to clear credentials")
	}
	return jsonOK(c, http.StatusOK, map[string]any{"message": "Credentials cleared"})
}

func (h *SettingsRoutes) handleLogout(c echo.Context) error {
	if err := h.creds.Clear(c.Request(), c.Response()); err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to clear session")
	}
	return jsonOK(c, http.StatusOK, map[string]any{"message": "Logged out"})
}
