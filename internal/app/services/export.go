package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/a-steris/paydash/internal/app/domain"
	"github.com/a-steris/paydash/internal/app/ports"
	"github.com/a-steris/paydash/internal/downloads"
)

// Delivery channels. Exactly one executes per export request.
const (
	ChannelDownload = "download"
	ChannelEmail    = "email"
	ChannelWebhook  = "webhook"
)

const defaultListLimit = 10

// ExportRequest describes one export: which records, over which channel.
type ExportRequest struct {
	ReportType  domain.ReportType
	Channel     string
	Destination string
	WebhookURL  string
	Limit       int
	Since       int64
}

// ExportService fetches records through the session's strategy, normalizes
// them and serializes the result to CSV.
type ExportService struct {
	api       ports.StripeAPI
	mailer    ports.Mailer
	webhook   ports.WebhookNotifier
	downloads *downloads.Store
	log       *slog.Logger
}

// NewExportService wires the export pipeline.
func NewExportService(api ports.StripeAPI, mailer ports.Mailer, webhook ports.WebhookNotifier, dl *downloads.Store, log *slog.Logger) *ExportService {
	return &ExportService{api: api, mailer: mailer, webhook: webhook, downloads: dl, log: log}
}

// Export builds the artifact for the request using the given strategy and
// returns it together with summary stats for webhook delivery.
func (s *ExportService) Export(ctx context.Context, strategy domain.Strategy, req ExportRequest) (domain.ExportArtifact, domain.SummaryStats, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	switch st := strategy.(type) {
	case domain.APIStrategy:
		return s.exportFromAPI(ctx, st.Key, req.ReportType, limit, req.Since)
	case domain.BrowserStrategy:
		return s.exportFromDownloads(req.ReportType)
	default:
		return domain.ExportArtifact{}, domain.SummaryStats{}, domain.ErrCredentialMissing
	}
}

func (s *ExportService) exportFromAPI(ctx context.Context, key string, reportType domain.ReportType, limit int, since int64) (domain.ExportArtifact, domain.SummaryStats, error) {
	var (
		body  []byte
		stats domain.SummaryStats
		err   error
	)

	switch reportType {
	case domain.ReportPayments:
		var raw []domain.RawPayment
		raw, err = s.api.ListPayments(ctx, key, limit, since)
		if err == nil {
			stats = PaymentsSummary(raw)
			body, err = PaymentsCSV(NormalizePayments(raw))
		}
	case domain.ReportCustomers:
		var raw []domain.RawCustomer
		raw, err = s.api.ListCustomers(ctx, key, limit)
		if err == nil {
			stats = CustomersSummary(raw)
			body, err = CustomersCSV(NormalizeCustomers(raw))
		}
	case domain.ReportInvoices:
		var raw []domain.RawInvoice
		raw, err = s.api.ListInvoices(ctx, key, since, limit)
		if err == nil {
			stats = InvoicesSummary(raw)
			body, err = InvoicesCSV(NormalizeInvoices(raw))
		}
	default:
		err = fmt.Errorf("unknown report type %q", reportType)
	}
	if err != nil {
		return domain.ExportArtifact{}, domain.SummaryStats{}, err
	}

	return domain.ExportArtifact{
		ReportType: reportType,
		Filename:   artifactFilename(reportType, time.Now()),
		Bytes:      body,
	}, stats, nil
}

// exportFromDownloads serves the invoice CSV produced by the last browser
// sync. Login-only sessions have no API to list payments or customers.
func (s *ExportService) exportFromDownloads(reportType domain.ReportType) (domain.ExportArtifact, domain.SummaryStats, error) {
	if reportType != domain.ReportInvoices {
		return domain.ExportArtifact{}, domain.SummaryStats{}, &domain.UpstreamError{
			Message: fmt.Sprintf("%s reports require an API key; login-only sessions can sync invoices", reportType),
		}
	}

	path, ok := s.downloads.Latest()
	if !ok {
		return domain.ExportArtifact{}, domain.SummaryStats{}, &domain.UpstreamError{
			Message: "no synced invoice file available - run invoice sync first",
		}
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return domain.ExportArtifact{}, domain.SummaryStats{}, fmt.Errorf("reading synced invoices: %w", err)
	}

	return domain.ExportArtifact{
		ReportType: reportType,
		Filename:   artifactFilename(reportType, time.Now()),
		Bytes:      body,
	}, domain.SummaryStats{}, nil
}

// Deliver sends the artifact over exactly one channel. Channel failures
// come back as *domain.DeliveryError so callers always see a typed
// outcome; the download channel is handled by the HTTP layer and needs no
// I/O here.
func (s *ExportService) Deliver(ctx context.Context, artifact domain.ExportArtifact, stats domain.SummaryStats, req ExportRequest) error {
	switch req.Channel {
	case ChannelDownload:
		return nil
	case ChannelEmail:
		if req.Destination == "" {
			return &domain.DeliveryError{Channel: ChannelEmail, Message: "destination email address is required"}
		}
		subject := fmt.Sprintf("Stripe %s report", artifact.ReportType)
		if err := s.mailer.Send(ctx, req.Destination, subject, artifact); err != nil {
			return &domain.DeliveryError{Channel: ChannelEmail, Message: err.Error()}
		}
		return nil
	case ChannelWebhook:
		if req.WebhookURL == "" {
			return &domain.DeliveryError{Channel: ChannelWebhook, Message: "Please configure Slack webhook URL"}
		}
		if err := s.webhook.Post(ctx, req.WebhookURL, artifact, stats); err != nil {
			return &domain.DeliveryError{Channel: ChannelWebhook, Message: err.Error()}
		}
		return nil
	default:
		return &domain.DeliveryError{Channel: req.Channel, Message: "unknown delivery channel"}
	}
}

func artifactFilename(reportType domain.ReportType, at time.Time) string {
	return fmt.Sprintf("%s_report_%s.csv", reportType, at.Format("20060102"))
}
