// Package ports defines the interfaces between application services and
// their driven adapters. Adapters implement these; services depend only on
// them so every collaborator can be faked in tests.
package ports

import (
	"context"

	"github.com/a-steris/paydash/internal/app/domain"
)

// StripeAPI is the structured REST strategy. Every call is scoped by the
// key passed in: there is no process-wide default, so concurrent sessions
// with different keys never cross-contaminate.
type StripeAPI interface {
	Verify(ctx context.Context, key string) error
	GetBalance(ctx context.Context, key string) ([]domain.BalanceAmount, error)
	ListPayments(ctx context.Context, key string, limit int, since int64) ([]domain.RawPayment, error)
	ListCustomers(ctx context.Context, key string, limit int) ([]domain.RawCustomer, error)
	ListInvoices(ctx context.Context, key string, since int64, maxCount int) ([]domain.RawInvoice, error)
}

// InvoiceSyncer is the interactive browser strategy. One call is one full
// login/export attempt; it blocks for its whole duration and always
// returns a structured result.
type InvoiceSyncer interface {
	SyncInvoices(ctx context.Context, creds domain.BrowserStrategy) domain.SyncResult
}

// CaptchaSolver delegates a reCAPTCHA challenge to an external solving
// service and returns the response token.
type CaptchaSolver interface {
	Solve(ctx context.Context, websiteURL, siteKey string) (string, error)
}

// Mailer delivers an export artifact by email. The mail transport itself
// is an external collaborator.
type Mailer interface {
	Send(ctx context.Context, to, subject string, artifact domain.ExportArtifact) error
}

// WebhookNotifier posts an export summary plus CSV preview to a chat
// webhook URL.
type WebhookNotifier interface {
	Post(ctx context.Context, webhookURL string, artifact domain.ExportArtifact, stats domain.SummaryStats) error
}
