package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/a-steris/paydash/internal/app/domain"
	appservices "github.com/a-steris/paydash/internal/app/services"
	"github.com/a-steris/paydash/internal/creds"
)

// ExportRoutes runs the export pipeline: fetch, normalize, serialize,
// deliver. The download channel streams the CSV back in the response.
type ExportRoutes struct {
	guard          *CredentialGuard
	exports        *appservices.ExportService
	creds          *creds.Store
	defaultWebhook string
}

func NewExportRoutes(guard *CredentialGuard, exports *appservices.ExportService, store *creds.Store, defaultWebhook string) *ExportRoutes {
	return &ExportRoutes{guard: guard, exports: exports, creds: store, defaultWebhook: defaultWebhook}
}

// RegisterRoutes registers the export endpoint.
func (h *ExportRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/api/export", h.handleExport, h.guard.Require)
}

type exportRequest struct {
	ReportType  string `json:"report_type" form:"report_type"`
	Channel     string `json:"channel" form:"channel"`
	Destination string `json:"destination" form:"destination"`
	Limit       int    `json:"limit" form:"limit"`
	Since       int64  `json:"since" form:"since"`
}

func (h *ExportRoutes) handleExport(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if !domain.ValidReportType(req.ReportType) {
		return jsonError(c, http.StatusBadRequest, fmt.Sprintf("unknown report type %q", req.ReportType))
	}
	channel := req.Channel
	if channel == "" {
		channel = appservices.ChannelDownload
	}

	// Session webhook wins over the server-wide default.
	webhookURL, _, err := h.creds.Load(c.Request(), creds.KindWebhookURL)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, "Stored credentials could not be read - please reconnect Stripe")
	}
	if webhookURL == "" {
		webhookURL = h.defaultWebhook
	}

	svcReq := appservices.ExportRequest{
		ReportType:  domain.ReportType(req.ReportType),
		Channel:     channel,
		Destination: req.Destination,
		WebhookURL:  webhookURL,
		Limit:       req.Limit,
		Since:       req.Since,
	}

	ctx := c.Request().Context()
	artifact, stats, err := h.exports.Export(ctx, strategyFrom(c), svcReq)
	if err != nil {
		return upstreamJSON(c, err)
	}

	if err := h.exports.Deliver(ctx, artifact, stats, svcReq); err != nil {
		var delivery *domain.DeliveryError
		if errors.As(err, &delivery) {
			return jsonError(c, http.StatusBadRequest, delivery.Message)
		}
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	if channel == appservices.ChannelDownload {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Filename))
		return c.Blob(http.StatusOK, "text/csv", artifact.Bytes)
	}
	return jsonOK(c, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("Report delivered via %s", channel),
		"filename": artifact.Filename,
	})
}
