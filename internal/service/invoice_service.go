package service

import (
	"context"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var invoiceTracer = otel.Tracer("service/invoice")

// InvoiceService exposes invoice listing and lookup to the HTTP layer.
type InvoiceService struct {
	invoices port.InvoiceSource
	logger   *zap.Logger
}

func NewInvoiceService(invoices port.InvoiceSource, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{invoices: invoices, logger: logger}
}

// List returns one page of the user's invoices, optionally filtered by
// status. The store returns invoices ordered by due date.
func (s *InvoiceService) List(ctx context.Context, userID, status string, page, pageSize int) (*domain.ListResponse[domain.Invoice], error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.List")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("page", page),
	)

	if status != "" && !validInvoiceStatus(status) {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown invoice status"}
	}

	invoices, err := s.invoices.ListInvoices(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	total := len(invoices)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &domain.ListResponse[domain.Invoice]{
		Data:     invoices[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}, nil
}

// Get returns a single invoice by ID.
func (s *InvoiceService) Get(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Get")
	defer span.End()

	if invoiceID == "" {
		return nil, &domain.ErrValidation{Field: "invoice_id", Message: "required"}
	}
	return s.invoices.GetInvoice(ctx, userID, invoiceID)
}

// Ping issues a minimal query against the store for the health check.
func (s *InvoiceService) Ping(ctx context.Context) error {
	_, err := s.invoices.ListInvoices(ctx, "health-check", "")
	return err
}

func validInvoiceStatus(status string) bool {
	switch status {
	case domain.InvoiceStatusDraft, domain.InvoiceStatusSent, domain.InvoiceStatusPaid,
		domain.InvoiceStatusOverdue, domain.InvoiceStatusCancelled:
		return true
	}
	return false
}
