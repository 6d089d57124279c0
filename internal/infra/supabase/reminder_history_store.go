package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/infra/resilience"
)

// ============================================================
// Reminder history store — implements port.ReminderHistoryStore
// ============================================================

// historyRow maps the reminder_history table. One row per invoice,
// enforced by a unique constraint on (user_id, invoice_id).
type historyRow struct {
	InvoiceID  string `json:"invoice_id"`
	UserID     string `json:"user_id,omitempty"`
	LastSentAt string `json:"last_sent_at"`
	SentCount  int    `json:"sent_count"`
}

func (r historyRow) toDomain() domain.ReminderHistoryEntry {
	entry := domain.ReminderHistoryEntry{
		InvoiceID: r.InvoiceID,
		SentCount: r.SentCount,
	}
	if t, err := time.Parse(time.RFC3339, r.LastSentAt); err == nil {
		entry.LastSentAt = t
	}
	return entry
}

// GetReminderHistory returns the entry for one invoice, or ErrNotFound.
func (c *Client) GetReminderHistory(ctx context.Context, userID, invoiceID string) (*domain.ReminderHistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetReminderHistory")
	defer span.End()

	path := fmt.Sprintf("reminder_history?user_id=eq.%s&invoice_id=eq.%s&limit=1",
		url.QueryEscape(userID), url.QueryEscape(invoiceID))

	var rows []historyRow
	if err := c.getJSON(ctx, "reminder_history", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "reminder_history", ID: invoiceID}
	}

	entry := rows[0].toDomain()
	return &entry, nil
}

// GetAllReminderHistory returns the full invoiceID → entry mapping for
// the user in one read, as used by classification.
func (c *Client) GetAllReminderHistory(ctx context.Context, userID string) (map[string]domain.ReminderHistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAllReminderHistory")
	defer span.End()

	path := fmt.Sprintf("reminder_history?user_id=eq.%s", url.QueryEscape(userID))

	var rows []historyRow
	if err := c.getJSON(ctx, "reminder_history", path, &rows); err != nil {
		return nil, err
	}

	byInvoice := make(map[string]domain.ReminderHistoryEntry, len(rows))
	for _, r := range rows {
		byInvoice[r.InvoiceID] = r.toDomain()
	}
	return byInvoice, nil
}

// UpsertReminderHistory stores the complete new entry for an invoice,
// replacing any existing row. Failures propagate: a reminder must never
// be recorded-but-lost.
func (c *Client) UpsertReminderHistory(ctx context.Context, userID string, entry domain.ReminderHistoryEntry) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertReminderHistory")
	defer span.End()

	row := map[string]any{
		"user_id":      userID,
		"invoice_id":   entry.InvoiceID,
		"last_sent_at": entry.LastSentAt.Format(time.RFC3339),
		"sent_count":   entry.SentCount,
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "reminder_history", "invoice_id", row)
			if err != nil {
				return err
			}
			var results []historyRow
			if err := json.Unmarshal(body, &results); err != nil {
				return fmt.Errorf("decode reminder_history: %w", err)
			}
			if len(results) == 0 {
				return fmt.Errorf("no result from reminder_history upsert")
			}
			return nil
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/reminder_history", Err: err}
	}
	return nil
}
