package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
)

// ============================================================
// Quotes & payments store — implements port.StatsSource
// ============================================================

type quoteRow struct {
	ID          string  `json:"id"`
	QuoteNumber string  `json:"quote_number"`
	ClientName  string  `json:"client_name"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	IssuedAt    string  `json:"issued_at"`
}

type paymentRow struct {
	ID         string  `json:"id"`
	InvoiceID  string  `json:"invoice_id"`
	ClientName string  `json:"client_name"`
	Amount     float64 `json:"amount"`
	PaidAt     string  `json:"paid_at"`
	Method     string  `json:"method"`
}

// ListQuotes fetches the user's quotes for dashboard aggregation.
func (c *Client) ListQuotes(ctx context.Context, userID string) ([]domain.Quote, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListQuotes")
	defer span.End()

	path := fmt.Sprintf("quotes?user_id=eq.%s", url.QueryEscape(userID))

	var rows []quoteRow
	if err := c.getJSON(ctx, "quotes", path, &rows); err != nil {
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(rows))
	for _, r := range rows {
		q := domain.Quote{
			ID:          r.ID,
			QuoteNumber: r.QuoteNumber,
			ClientName:  r.ClientName,
			TotalAmount: r.TotalAmount,
			Status:      r.Status,
		}
		if t, err := time.Parse(time.RFC3339, r.IssuedAt); err == nil {
			q.IssuedAt = t
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// ListPayments fetches the user's received payments, newest first.
func (c *Client) ListPayments(ctx context.Context, userID string) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPayments")
	defer span.End()

	path := fmt.Sprintf("payments?user_id=eq.%s&order=paid_at.desc", url.QueryEscape(userID))

	var rows []paymentRow
	if err := c.getJSON(ctx, "payments", path, &rows); err != nil {
		return nil, err
	}

	payments := make([]domain.Payment, 0, len(rows))
	for _, r := range rows {
		p := domain.Payment{
			ID:         r.ID,
			InvoiceID:  r.InvoiceID,
			ClientName: r.ClientName,
			Amount:     r.Amount,
			Method:     r.Method,
		}
		if t, err := time.Parse(time.RFC3339, r.PaidAt); err == nil {
			p.PaidAt = t
		} else if t, err := time.Parse("2006-01-02", r.PaidAt); err == nil {
			p.PaidAt = t
		}
		payments = append(payments, p)
	}
	return payments, nil
}
