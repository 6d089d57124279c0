// Package domain defines the core business entities for Jardin Chef.
// These models are independent of external services and represent the
// canonical data structures used throughout the API.
package domain

import "time"

// ============================================================
// Invoices
// ============================================================

// Invoice statuses as stored in Supabase.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice represents a client invoice. Read-only from the reminder
// engine's point of view: it is produced by the invoice source and
// never mutated here.
type Invoice struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email,omitempty"`
	TotalAmount   float64   `json:"total_amount"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
	IssuedAt      time.Time `json:"issued_at,omitempty"`
}

// ReminderEligible reports whether the invoice status allows reminders
// at all. Due-date checks are done against an explicit reference date
// by the engine, not here.
func (i Invoice) ReminderEligible() bool {
	return i.Status == InvoiceStatusSent || i.Status == InvoiceStatusOverdue
}

// DaysLate returns the whole-day count between the due date and the
// reference date. Zero or negative means not late.
func (i Invoice) DaysLate(today time.Time) int {
	if i.DueDate.IsZero() {
		return 0
	}
	due := truncateToDay(i.DueDate)
	ref := truncateToDay(today)
	return int(ref.Sub(due).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
