package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
)

// ============================================================
// Invoices store — implements port.InvoiceSource (read-only)
// ============================================================

// invoiceRow maps Supabase invoice columns to our domain.
type invoiceRow struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	InvoiceNumber string  `json:"invoice_number"`
	ClientName    string  `json:"client_name"`
	ClientEmail   string  `json:"client_email"`
	TotalAmount   float64 `json:"total_amount"`
	DueDate       string  `json:"due_date"` // YYYY-MM-DD
	Status        string  `json:"status"`
	IssuedAt      string  `json:"issued_at"`
}

func (r invoiceRow) toDomain() domain.Invoice {
	inv := domain.Invoice{
		ID:            r.ID,
		InvoiceNumber: r.InvoiceNumber,
		ClientName:    r.ClientName,
		ClientEmail:   r.ClientEmail,
		TotalAmount:   r.TotalAmount,
		Status:        r.Status,
	}
	// A row with an unparseable due date keeps the zero time; the
	// engine excludes it from classification rather than failing.
	if t, err := time.Parse("2006-01-02", r.DueDate); err == nil {
		inv.DueDate = t
	} else if t, err := time.Parse(time.RFC3339, r.DueDate); err == nil {
		inv.DueDate = t
	}
	if t, err := time.Parse(time.RFC3339, r.IssuedAt); err == nil {
		inv.IssuedAt = t
	}
	return inv
}

// ListInvoices fetches the user's invoices, optionally filtered by status.
func (c *Client) ListInvoices(ctx context.Context, userID, status string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvoices")
	defer span.End()

	path := fmt.Sprintf("invoices?user_id=eq.%s&order=due_date.asc", url.QueryEscape(userID))
	if status != "" {
		path += "&status=eq." + url.QueryEscape(status)
	}

	var rows []invoiceRow
	if err := c.getJSON(ctx, "invoices", path, &rows); err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for _, r := range rows {
		invoices = append(invoices, r.toDomain())
	}
	return invoices, nil
}

// GetInvoice fetches a single invoice scoped to the user.
func (c *Client) GetInvoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInvoice")
	defer span.End()

	path := fmt.Sprintf("invoices?user_id=eq.%s&id=eq.%s&limit=1",
		url.QueryEscape(userID), url.QueryEscape(invoiceID))

	var rows []invoiceRow
	if err := c.getJSON(ctx, "invoices", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: invoiceID}
	}

	inv := rows[0].toDomain()
	return &inv, nil
}
