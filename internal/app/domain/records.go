package domain

// ReportType selects which record family an export covers.
type ReportType string

const (
	ReportPayments  ReportType = "payments"
	ReportCustomers ReportType = "customers"
	ReportInvoices  ReportType = "invoices"
)

// ValidReportType reports whether value names a known report type.
func ValidReportType(value string) bool {
	switch ReportType(value) {
	case ReportPayments, ReportCustomers, ReportInvoices:
		return true
	default:
		return false
	}
}

// BalanceAmount is one available balance bucket as reported upstream.
type BalanceAmount struct {
	AmountCents int64
	Currency    string
}

// RawPayment is the strategy-neutral payment shape. Both the API client
// and the browser engine produce this; amounts stay in minor units until
// normalization.
type RawPayment struct {
	AmountCents   int64
	Currency      string
	Status        string
	Description   string
	Created       int64
	CustomerEmail string
}

// RawCustomer is the strategy-neutral customer shape.
type RawCustomer struct {
	Email           string
	Created         int64
	TotalPayments   int64
	TotalSpentCents int64
}

// RawInvoice is the strategy-neutral invoice shape.
type RawInvoice struct {
	ID            string
	AmountCents   int64
	Currency      string
	Status        string
	CustomerEmail string
	Created       int64
	DueAt         int64
	Paid          bool
	Description   string
}

// Payment is the normalized, export-ready payment row.
type Payment struct {
	Amount        string
	Currency      string
	Status        string
	Description   string
	Created       string
	CustomerEmail string
}

// Customer is the normalized, export-ready customer row.
type Customer struct {
	Email         string
	Created       string
	TotalPayments int64
	TotalSpent    string
}

// Invoice is the normalized, export-ready invoice row.
type Invoice struct {
	ID            string
	Amount        string
	Status        string
	CustomerEmail string
	Created       string
	DueAt         string
	Paid          bool
	Description   string
}

// ExportArtifact is one generated report, ephemeral per export request.
type ExportArtifact struct {
	ReportType ReportType
	Filename   string
	Bytes      []byte
}

// SummaryStats accompanies a delivered artifact in webhook messages.
type SummaryStats struct {
	TotalAmount    string
	TotalCount     int
	Successful     int
	Failed         int
	TotalCustomers int
	TotalInvoices  int
	PaidInvoices   int
}
