package routes

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/a-steris/paydash/internal/app/domain"
	appservices "github.com/a-steris/paydash/internal/app/services"
)

// SyncRoutes drives the interactive invoice sync and serves its output.
type SyncRoutes struct {
	guard *CredentialGuard
	sync  *appservices.SyncService
}

func NewSyncRoutes(guard *CredentialGuard, sync *appservices.SyncService) *SyncRoutes {
	return &SyncRoutes{guard: guard, sync: sync}
}

// RegisterRoutes registers invoice sync endpoints.
func (h *SyncRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/api/invoices/sync-and-download", h.handleSyncAndDownload, h.guard.Require)
	s.GET("/api/invoices/latest-download", h.handleLatestDownload, h.guard.Require)
}

// handleSyncAndDownload blocks for the whole browser attempt and streams
// the exported CSV back on success.
func (h *SyncRoutes) handleSyncAndDownload(c echo.Context) error {
	strategy := strategyFrom(c)
	if _, ok := strategy.(domain.BrowserStrategy); !ok {
		return jsonError(c, http.StatusBadRequest, "Invoice sync requires login credentials; API key sessions can export invoices directly")
	}

	result := h.sync.SyncAndDownload(c.Request().Context(), strategy)
	if !result.OK {
		return jsonError(c, http.StatusBadGateway, result.Message)
	}
	return c.Attachment(result.FilePath, filepath.Base(result.FilePath))
}

func (h *SyncRoutes) handleLatestDownload(c echo.Context) error {
	path, ok := h.sync.LatestDownload()
	if !ok {
		return jsonError(c, http.StatusNotFound, "no synced invoice file available - run invoice sync first")
	}
	return c.Attachment(path, filepath.Base(path))
}
