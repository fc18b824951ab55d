package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/a-steris/paydash/internal/app/domain"
	"github.com/a-steris/paydash/internal/app/ports"
	"github.com/a-steris/paydash/internal/downloads"
)

// SyncService runs one blocking browser sync attempt per call. The
// attempt is a non-cancellable unit of work once submitted; callers
// isolate it from latency-sensitive request handling.
type SyncService struct {
	engine    ports.InvoiceSyncer
	downloads *downloads.Store
	timeout   time.Duration
	log       *slog.Logger
}

// NewSyncService wires the browser engine and downloads store.
func NewSyncService(engine ports.InvoiceSyncer, dl *downloads.Store, timeout time.Duration, log *slog.Logger) *SyncService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &SyncService{engine: engine, downloads: dl, timeout: timeout, log: log}
}

// SyncAndDownload drives a full login/export attempt for a login-only
// session. The result is always structured; no raw error crosses this
// boundary.
func (s *SyncService) SyncAndDownload(ctx context.Context, strategy domain.Strategy) domain.SyncResult {
	browser, ok := strategy.(domain.BrowserStrategy)
	if !ok {
		return domain.SyncResult{OK: false, Message: "invoice sync requires login credentials, not an API key"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	result := s.engine.SyncInvoices(ctx, browser)
	s.log.Info("invoice sync finished",
		"ok", result.OK,
		"duration_ms", time.Since(started).Milliseconds(),
		"file", result.FilePath,
	)
	return result
}

// LatestDownload returns the canonical result of the last successful sync.
func (s *SyncService) LatestDownload() (string, bool) {
	return s.downloads.Latest()
}
