package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/a-steris/paydash/internal/app/domain"
	"github.com/a-steris/paydash/internal/app/ports"
	appservices "github.com/a-steris/paydash/internal/app/services"
)

const recentListLimit = 10

// DataRoutes serves dashboard data read through the structured API.
// Login-only sessions cannot list records and get a pointed error.
type DataRoutes struct {
	guard *CredentialGuard
	api   ports.StripeAPI
}

func NewDataRoutes(guard *CredentialGuard, api ports.StripeAPI) *DataRoutes {
	return &DataRoutes{guard: guard, api: api}
}

// RegisterRoutes registers dashboard data endpoints.
func (h *DataRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/api/balance", h.handleBalance, h.guard.Require)
	s.GET("/api/recent-payments", h.handleRecentPayments, h.guard.Require)
	s.GET("/api/recent-customers", h.handleRecentCustomers, h.guard.Require)
	s.GET("/api/invoices", h.handleInvoices, h.guard.Require)
}

type balanceEntry struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (h *DataRoutes) handleBalance(c echo.Context) error {
	key, ok := apiKeyFrom(c)
	if !ok {
		return errAPIKeyRequired(c)
	}
	amounts, apiErr := h.api.GetBalance(c.Request().Context(), key)
	if apiErr != nil {
		return upstreamJSON(c, apiErr)
	}
	entries := make([]balanceEntry, 0, len(amounts))
	for _, a := range amounts {
		entries = append(entries, balanceEntry{Amount: majorUnits(a.AmountCents), Currency: a.Currency})
	}
	return jsonOK(c, http.StatusOK, map[string]any{"balance": entries})
}

type paymentEntry struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	Description   string `json:"description"`
	Created       string `json:"created"`
	CustomerEmail string `json:"customer_email"`
}

func (h *DataRoutes) handleRecentPayments(c echo.Context) error {
	key, ok := apiKeyFrom(c)
	if !ok {
		return errAPIKeyRequired(c)
	}
	raw, apiErr := h.api.ListPayments(c.Request().Context(), key, recentListLimit, 0)
	if apiErr != nil {
		return upstreamJSON(c, apiErr)
	}
	rows := appservices.NormalizePayments(raw)
	entries := make([]paymentEntry, 0, len(rows))
	for _, p := range rows {
		entries = append(entries, paymentEntry{
			Amount:        p.Amount,
			Currency:      p.Currency,
			Status:        p.Status,
			Description:   p.Description,
			Created:       p.Created,
			CustomerEmail: p.CustomerEmail,
		})
	}
	return jsonOK(c, http.StatusOK, map[string]any{"payments": entries})
}

type customerEntry struct {
	Email         string `json:"email"`
	Created       string `json:"created"`
	TotalPayments int64  `json:"total_payments"`
	TotalSpent    string `json:"total_spent"`
}

func (h *DataRoutes) handleRecentCustomers(c echo.Context) error {
	key, ok := apiKeyFrom(c)
	if !ok {
		return errAPIKeyRequired(c)
	}
	raw, apiErr := h.api.ListCustomers(c.Request().Context(), key, recentListLimit)
	if apiErr != nil {
		return upstreamJSON(c, apiErr)
	}
	rows := appservices.NormalizeCustomers(raw)
	entries := make([]customerEntry, 0, len(rows))
	for _, cu := range rows {
		entries = append(entries, customerEntry{
			Email:         cu.Email,
			Created:       cu.Created,
			TotalPayments: cu.TotalPayments,
			TotalSpent:    cu.TotalSpent,
		})
	}
	return jsonOK(c, http.StatusOK, map[string]any{"customers": entries})
}

type invoiceEntry struct {
	ID            string `json:"id"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	CustomerEmail string `json:"customer_email"`
	Created       string `json:"created"`
	DueDate       string `json:"due_date"`
	Paid          bool   `json:"paid"`
	Description   string `json:"description"`
}

func (h *DataRoutes) handleInvoices(c echo.Context) error {
	key, ok := apiKeyFrom(c)
	if !ok {
		return errAPIKeyRequired(c)
	}
	raw, apiErr := h.api.ListInvoices(c.Request().Context(), key, 0, recentListLimit)
	if apiErr != nil {
		return upstreamJSON(c, apiErr)
	}
	rows := appservices.NormalizeInvoices(raw)
	entries := make([]invoiceEntry, 0, len(rows))
	for _, inv := range rows {
		entries = append(entries, invoiceEntry{
			ID:            inv.ID,
			Amount:        inv.Amount,
			Status:        inv.Status,
			CustomerEmail: inv.CustomerEmail,
			Created:       inv.Created,
			DueDate:       inv.DueAt,
			Paid:          inv.Paid,
			Description:   inv.Description,
		})
	}
	return jsonOK(c, http.StatusOK, map[string]any{"invoices": entries})
}

// apiKeyFrom unwraps the guarded strategy when it is the API variant.
func apiKeyFrom(c echo.Context) (string, bool) {
	strategy, ok := strategyFrom(c).(domain.APIStrategy)
	if !ok {
		return "", false
	}
	return strategy.Key, true
}

func errAPIKeyRequired(c echo.Context) error {
	return jsonError(c, http.StatusBadRequest, "This data requires an API key; login-only sessions can sync invoices instead")
}

func upstreamJSON(c echo.Context, err error) error {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return jsonError(c, http.StatusBadGateway, upstream.Message)
	}
	return jsonError(c, http.StatusInternalServerError, err.Error())
}
