// Package stripeapi implements the structured REST strategy on top of the
// official Stripe SDK. Every call takes the session's key explicitly and
// builds a fresh SDK client, so no key ever lives in process-wide state.
package stripeapi

import (
	"context"
	"errors"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/a-steris/paydash/internal/app/domain"
)

// Unbounded time-range queries stop here to bound latency and memory.
const maxUnboundedRecords = 1000

// Stripe rejects list page sizes over 100; larger caps paginate.
const maxPageSize = 100

func pageSize(limit int) int64 {
	if limit > maxPageSize {
		return maxPageSize
	}
	return int64(limit)
}

// Client is a stateless, per-call-keyed Stripe API client. Safe for
// concurrent use across sessions.
type Client struct {
	backends *stripe.Backends
}

// New returns a client against the live Stripe endpoints.
func New() *Client {
	return &Client{}
}

// NewWithBackends points the SDK at custom backends; tests use this to
// target a stub server.
func NewWithBackends(backends *stripe.Backends) *Client {
	return &Client{backends: backends}
}

func (c *Client) api(key string) *client.API {
	sc := &client.API{}
	sc.Init(key, c.backends)
	return sc
}

// Verify makes one lightweight read-only call to prove the key works.
func (c *Client) Verify(ctx context.Context, key string) error {
	params := &stripe.BalanceParams{}
	params.Context = ctx
	if _, err := c.api(key).Balance.Get(params); err != nil {
		return upstreamError(err)
	}
	return nil
}

// GetBalance returns the available balance buckets.
func (c *Client) GetBalance(ctx context.Context, key string) ([]domain.BalanceAmount, error) {
	params := &stripe.BalanceParams{}
	params.Context = ctx
	balance, err := c.api(key).Balance.Get(params)
	if err != nil {
		return nil, upstreamError(err)
	}

	amounts := make([]domain.BalanceAmount, 0, len(balance.Available))
	for _, available := range balance.Available {
		amounts = append(amounts, domain.BalanceAmount{
			AmountCents: available.Amount,
			Currency:    strings.ToLower(string(available.Currency)),
		})
	}
	return amounts, nil
}

// ListPayments returns up to limit recent payment intents, newest first,
// optionally bounded below by since (epoch seconds).
func (c *Client) ListPayments(ctx context.Context, key string, limit int, since int64) ([]domain.RawPayment, error) {
	if limit <= 0 || limit > maxUnboundedRecords {
		limit = maxUnboundedRecords
	}

	params := &stripe.PaymentIntentListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize(limit))
	if since > 0 {
		params.CreatedRange = &stripe.RangeQueryParams{GreaterThanOrEqual: since}
	}
	params.AddExpand("data.customer")

	payments := make([]domain.RawPayment, 0, limit)
	iter := c.api(key).PaymentIntents.List(params)
	for iter.Next() {
		if len(payments) >= limit {
			break
		}
		payments = append(payments, rawPayment(iter.PaymentIntent()))
	}
	if err := iter.Err(); err != nil {
		return nil, upstreamError(err)
	}
	return payments, nil
}

// ListCustomers returns up to limit recent customers with per-customer
// totals aggregated from recent payment history.
func (c *Client) ListCustomers(ctx context.Context, key string, limit int) ([]domain.RawCustomer, error) {
	if limit <= 0 || limit > maxUnboundedRecords {
		limit = maxUnboundedRecords
	}

	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize(limit))

	customers := make([]domain.RawCustomer, 0, limit)
	iter := c.api(key).Customers.List(params)
	for iter.Next() {
		if len(customers) >= limit {
			break
		}
		customer := iter.Customer()
		customers = append(customers, domain.RawCustomer{
			Email:   customer.Email,
			Created: customer.Created,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, upstreamError(err)
	}

	c.aggregateCustomerTotals(ctx, key, customers)
	return customers, nil
}

// aggregateCustomerTotals folds recent successful payments into the
// customer rows. Aggregation is best-effort: a failed payment listing
// leaves totals at zero rather than failing the customer export.
func (c *Client) aggregateCustomerTotals(ctx context.Context, key string, customers []domain.RawCustomer) {
	if len(customers) == 0 {
		return
	}
	payments, err := c.ListPayments(ctx, key, 100, 0)
	if err != nil {
		return
	}

	byEmail := map[string]int{}
	for i, customer := range customers {
		if customer.Email != "" {
			byEmail[customer.Email] = i
		}
	}
	for _, payment := range payments {
		if payment.Status != "succeeded" {
			continue
		}
		idx, ok := byEmail[payment.CustomerEmail]
		if !ok {
			continue
		}
		customers[idx].TotalPayments++
		customers[idx].TotalSpentCents += payment.AmountCents
	}
}

// ListInvoices pages through invoices created at or after since until
// maxCount records or exhaustion. Unbounded queries cap at 1000.
func (c *Client) ListInvoices(ctx context.Context, key string, since int64, maxCount int) ([]domain.RawInvoice, error) {
	if maxCount <= 0 || maxCount > maxUnboundedRecords {
		maxCount = maxUnboundedRecords
	}

	params := &stripe.InvoiceListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize(maxCount))
	if since > 0 {
		params.CreatedRange = &stripe.RangeQueryParams{GreaterThanOrEqual: since}
	}

	invoices := make([]domain.RawInvoice, 0, maxCount)
	iter := c.api(key).Invoices.List(params)
	for iter.Next() {
		if len(invoices) >= maxCount {
			break
		}
		invoices = append(invoices, rawInvoice(iter.Invoice()))
	}
	if err := iter.Err(); err != nil {
		return nil, upstreamError(err)
	}
	return invoices, nil
}

func rawPayment(pi *stripe.PaymentIntent) domain.RawPayment {
	email := pi.ReceiptEmail
	if email == "" && pi.Customer != nil {
		email = pi.Customer.Email
	}
	return domain.RawPayment{
		AmountCents:   pi.Amount,
		Currency:      strings.ToLower(string(pi.Currency)),
		Status:        string(pi.Status),
		Description:   pi.Description,
		Created:       pi.Created,
		CustomerEmail: email,
	}
}

func rawInvoice(inv *stripe.Invoice) domain.RawInvoice {
	return domain.RawInvoice{
		ID:            inv.ID,
		AmountCents:   inv.AmountDue,
		Currency:      strings.ToLower(string(inv.Currency)),
		Status:        string(inv.Status),
		CustomerEmail: inv.CustomerEmail,
		Created:       inv.Created,
		DueAt:         inv.DueDate,
		Paid:          inv.Status == stripe.InvoiceStatusPaid,
		Description:   inv.Description,
	}
}

// upstreamError maps any SDK failure to the typed upstream error. Nothing
// is retried here; retry policy belongs to the caller.
func upstreamError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = string(stripeErr.Code)
		}
		return &domain.UpstreamError{Message: msg}
	}
	return &domain.UpstreamError{Message: err.Error()}
}
