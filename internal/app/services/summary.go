package services

import (
	"fmt"

	"github.com/a-steris/paydash/internal/app/domain"
)

// PaymentsSummary aggregates raw payments for the webhook message block.
func PaymentsSummary(raw []domain.RawPayment) domain.SummaryStats {
	var totalCents int64
	successful := 0
	for _, p := range raw {
		totalCents += p.AmountCents
		if p.Status == "succeeded" {
			successful++
		}
	}
	return domain.SummaryStats{
		TotalAmount: fmt.Sprintf("%.2f", float64(totalCents)/100),
		TotalCount:  len(raw),
		Successful:  successful,
		Failed:      len(raw) - successful,
	}
}

// CustomersSummary aggregates raw customers.
func CustomersSummary(raw []domain.RawCustomer) domain.SummaryStats {
	return domain.SummaryStats{TotalCustomers: len(raw)}
}

// InvoicesSummary aggregates raw invoices.
func InvoicesSummary(raw []domain.RawInvoice) domain.SummaryStats {
	paid := 0
	var totalCents int64
	for _, inv := range raw {
		totalCents += inv.AmountCents
		if inv.Paid {
			paid++
		}
	}
	return domain.SummaryStats{
		TotalAmount:   fmt.Sprintf("%.2f", float64(totalCents)/100),
		TotalInvoices: len(raw),
		PaidInvoices:  paid,
	}
}
