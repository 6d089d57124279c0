package domain

import "time"

// ============================================================
// Payment Reminders
// ============================================================

// ReminderTier is one of three escalating reminder severities tied to
// days-late thresholds.
type ReminderTier string

const (
	TierFirst  ReminderTier = "first"
	TierSecond ReminderTier = "second"
	TierThird  ReminderTier = "third"
)

// Day thresholds at which each tier becomes applicable.
const (
	TierFirstThresholdDays  = 7
	TierSecondThresholdDays = 15
	TierThirdThresholdDays  = 30
)

// Rank orders tiers for comparison: first < second < third.
// Unknown tiers rank below first.
func (t ReminderTier) Rank() int {
	switch t {
	case TierFirst:
		return 1
	case TierSecond:
		return 2
	case TierThird:
		return 3
	}
	return 0
}

// ReminderHistoryEntry records how many reminders have been sent for an
// invoice and when the last one went out. Owned exclusively by the
// history store; the engine reads it and requests updates.
type ReminderHistoryEntry struct {
	InvoiceID  string    `json:"invoice_id"`
	LastSentAt time.Time `json:"last_sent_at"`
	SentCount  int       `json:"sent_count"`
}

// ReminderCandidate describes one invoice's current reminder status for
// display and action. Recomputed on every classification pass, never
// persisted.
type ReminderCandidate struct {
	InvoiceID       string        `json:"invoice_id"`
	InvoiceNumber   string        `json:"invoice_number"`
	ClientName      string        `json:"client_name"`
	Amount          float64       `json:"amount"`
	DaysLate        int           `json:"days_late"`
	RecommendedTier *ReminderTier `json:"recommended_tier"` // nil: visible but below threshold
	SentCount       int           `json:"sent_count"`
	LastReminderAt  *time.Time    `json:"last_reminder_at,omitempty"`
}

// SendReminderRequest is the body of POST /v1/reminders/send.
// TemplateID selects a custom template and bypasses the tier default.
type SendReminderRequest struct {
	InvoiceID  string `json:"invoice_id"`
	TemplateID string `json:"template_id,omitempty"`
}

// SendReminderResult reports the outcome of a send: the rendered
// message, the recorded history, and — separately — whether the email
// hand-off succeeded. History is written even when the transport fails,
// so a failed attempt is never retried as if it had not happened.
type SendReminderResult struct {
	InvoiceID      string               `json:"invoice_id"`
	InvoiceNumber  string               `json:"invoice_number"`
	Tier           ReminderTier         `json:"tier"`
	Rendered       RenderedMessage      `json:"rendered"`
	History        ReminderHistoryEntry `json:"history"`
	EmailDelivered bool                 `json:"email_delivered"`
	EmailError     string               `json:"email_error,omitempty"`
}
