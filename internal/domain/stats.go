package domain

import "time"

// ============================================================
// Quotes, Payments & Dashboard Statistics
// ============================================================

// Quote statuses as stored in Supabase.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
)

// Quote represents a client quote (devis).
type Quote struct {
	ID          string    `json:"id"`
	QuoteNumber string    `json:"quote_number"`
	ClientName  string    `json:"client_name"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	IssuedAt    time.Time `json:"issued_at,omitempty"`
}

// Payment represents a received payment against an invoice.
type Payment struct {
	ID         string    `json:"id"`
	InvoiceID  string    `json:"invoice_id"`
	ClientName string    `json:"client_name,omitempty"`
	Amount     float64   `json:"amount"`
	PaidAt     time.Time `json:"paid_at"`
	Method     string    `json:"method,omitempty"`
}

// MonthlyRevenuePoint is one month of received payments.
type MonthlyRevenuePoint struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// TopClient is one entry of the top-clients ranking by billed amount.
type TopClient struct {
	ClientName   string  `json:"client_name"`
	TotalBilled  float64 `json:"total_billed"`
	InvoiceCount int     `json:"invoice_count"`
}

// DashboardSummary is returned by GET /v1/dashboard/summary.
type DashboardSummary struct {
	MonthlyRevenue     []MonthlyRevenuePoint `json:"monthly_revenue"`
	TopClients         []TopClient           `json:"top_clients"`
	QuoteCount         int                   `json:"quote_count"`
	AcceptedQuoteCount int                   `json:"accepted_quote_count"`
	ConversionRate     float64               `json:"conversion_rate"` // accepted / (sent+accepted+rejected)
	OutstandingTotal   float64               `json:"outstanding_total"`
	OverdueTotal       float64               `json:"overdue_total"`
	OverdueCount       int                   `json:"overdue_count"`
	InvoiceCount       int                   `json:"invoice_count"`
	GeneratedAt        string                `json:"generated_at"`
}
