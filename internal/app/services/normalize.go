package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/a-steris/paydash/internal/app/domain"
)

// Placeholders for optional fields. Downstream consumers never have to
// distinguish blank from missing.
const (
	placeholderEmail = "No email"
	placeholderNA    = "N/A"
)

const timestampLayout = "2006-01-02 15:04:05"

// NormalizePayments converts raw payments into export-ready rows: minor
// units become 2-decimal major units, currency is upper-cased and epoch
// timestamps become local datetime strings.
func NormalizePayments(raw []domain.RawPayment) []domain.Payment {
	rows := make([]domain.Payment, 0, len(raw))
	for _, p := range raw {
		rows = append(rows, domain.Payment{
			Amount:        majorUnits(p.AmountCents),
			Currency:      strings.ToUpper(p.Currency),
			Status:        p.Status,
			Description:   orPlaceholder(p.Description, placeholderNA),
			Created:       formatEpoch(p.Created),
			CustomerEmail: orPlaceholder(p.CustomerEmail, placeholderEmail),
		})
	}
	return rows
}

// NormalizeCustomers converts raw customers into export-ready rows.
func NormalizeCustomers(raw []domain.RawCustomer) []domain.Customer {
	rows := make([]domain.Customer, 0, len(raw))
	for _, c := range raw {
		rows = append(rows, domain.Customer{
			Email:         orPlaceholder(c.Email, placeholderEmail),
			Created:       formatEpoch(c.Created),
			TotalPayments: c.TotalPayments,
			TotalSpent:    majorUnits(c.TotalSpentCents) + " USD",
		})
	}
	return rows
}

// NormalizeInvoices converts raw invoices into export-ready rows.
func NormalizeInvoices(raw []domain.RawInvoice) []domain.Invoice {
	rows := make([]domain.Invoice, 0, len(raw))
	for _, inv := range raw {
		due := placeholderNA
		if inv.DueAt > 0 {
			due = formatEpoch(inv.DueAt)
		}
		rows = append(rows, domain.Invoice{
			ID:            inv.ID,
			Amount:        majorUnits(inv.AmountCents),
			Status:        inv.Status,
			CustomerEmail: orPlaceholder(inv.CustomerEmail, placeholderEmail),
			Created:       formatEpoch(inv.Created),
			DueAt:         due,
			Paid:          inv.Paid,
			Description:   orPlaceholder(inv.Description, placeholderNA),
		})
	}
	return rows
}

func majorUnits(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

func formatEpoch(sec int64) string {
	if sec <= 0 {
		return placeholderNA
	}
	return time.Unix(sec, 0).Local().Format(timestampLayout)
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
