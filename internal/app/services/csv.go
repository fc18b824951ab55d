package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/a-steris/paydash/internal/app/domain"
)

// Header rows are part of the compatibility surface: email and webhook
// consumers parse these columns by name and position.
var (
	paymentsHeader  = []string{"Amount", "Currency", "Status", "Description", "Created", "Customer Email"}
	customersHeader = []string{"Email", "Created", "Total Payments", "Total Spent"}
	invoicesHeader  = []string{"Invoice ID", "Amount", "Status", "Customer Email", "Created Date", "Due Date", "Paid", "Description"}
)

// PaymentsCSV serializes normalized payments. An empty slice still yields
// exactly the header row.
func PaymentsCSV(rows []domain.Payment) ([]byte, error) {
	return writeCSV(paymentsHeader, len(rows), func(i int) []string {
		p := rows[i]
		return []string{p.Amount, p.Currency, p.Status, p.Description, p.Created, p.CustomerEmail}
	})
}

// CustomersCSV serializes normalized customers.
func CustomersCSV(rows []domain.Customer) ([]byte, error) {
	return writeCSV(customersHeader, len(rows), func(i int) []string {
		c := rows[i]
		return []string{c.Email, c.Created, strconv.FormatInt(c.TotalPayments, 10), c.TotalSpent}
	})
}

// InvoicesCSV serializes normalized invoices.
func InvoicesCSV(rows []domain.Invoice) ([]byte, error) {
	return writeCSV(invoicesHeader, len(rows), func(i int) []string {
		inv := rows[i]
		paid := "No"
		if inv.Paid {
			paid = "Yes"
		}
		return []string{inv.ID, inv.Amount, inv.Status, inv.CustomerEmail, inv.Created, inv.DueAt, paid, inv.Description}
	})
}

func writeCSV(header []string, count int, row func(int) []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for i := 0; i < count; i++ {
		if err := w.Write(row(i)); err != nil {
			return nil, fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}
