package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"

	"go.uber.org/zap"
)

type mockStatsSource struct {
	quotes      []domain.Quote
	payments    []domain.Payment
	quotesErr   error
	paymentsErr error
}

func (m *mockStatsSource) ListQuotes(_ context.Context, _ string) ([]domain.Quote, error) {
	if m.quotesErr != nil {
		return nil, m.quotesErr
	}
	return m.quotes, nil
}

func (m *mockStatsSource) ListPayments(_ context.Context, _ string) ([]domain.Payment, error) {
	if m.paymentsErr != nil {
		return nil, m.paymentsErr
	}
	return m.payments, nil
}

func newTestStatsService(inv *mockInvoiceSource, stats *mockStatsSource) *StatsService {
	return NewStatsService(inv, stats, fixedClock{t: testToday}, zap.NewNop())
}

func TestDashboardSummary_Aggregates(t *testing.T) {
	inv := &mockInvoiceSource{invoices: []domain.Invoice{
		overdueInvoice("inv-1", "F-001", 10),
		{ID: "inv-2", InvoiceNumber: "F-002", ClientName: "Dupont", TotalAmount: 1200, Status: domain.InvoiceStatusPaid, DueDate: testToday.AddDate(0, -1, 0)},
		{ID: "inv-3", InvoiceNumber: "F-003", ClientName: "Martin", TotalAmount: 300, Status: domain.InvoiceStatusSent, DueDate: testToday.AddDate(0, 0, 10)},
		{ID: "inv-4", InvoiceNumber: "F-004", ClientName: "Martin", TotalAmount: 50, Status: domain.InvoiceStatusDraft},
	}}
	stats := &mockStatsSource{
		quotes: []domain.Quote{
			{ID: "q1", Status: domain.QuoteStatusAccepted},
			{ID: "q2", Status: domain.QuoteStatusRejected},
			{ID: "q3", Status: domain.QuoteStatusSent},
			{ID: "q4", Status: domain.QuoteStatusAccepted},
			{ID: "q5", Status: domain.QuoteStatusDraft},
		},
		payments: []domain.Payment{
			{ID: "p1", Amount: 1200, PaidAt: testToday.AddDate(0, 0, -5)},
			{ID: "p2", Amount: 300, PaidAt: testToday.AddDate(0, -1, 0)},
			{ID: "p3", Amount: 100, PaidAt: testToday.AddDate(0, -1, -2)},
			// Older than the trailing window: excluded.
			{ID: "p4", Amount: 9999, PaidAt: testToday.AddDate(-2, 0, 0)},
		},
	}
	svc := newTestStatsService(inv, stats)

	got, err := svc.DashboardSummary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.InvoiceCount != 4 {
		t.Errorf("expected 4 invoices, got %d", got.InvoiceCount)
	}
	if got.QuoteCount != 5 {
		t.Errorf("expected 5 quotes, got %d", got.QuoteCount)
	}
	if got.AcceptedQuoteCount != 2 {
		t.Errorf("expected 2 accepted quotes, got %d", got.AcceptedQuoteCount)
	}
	// 2 accepted out of 4 decided (draft excluded).
	if got.ConversionRate != 0.5 {
		t.Errorf("expected conversion rate 0.5, got %f", got.ConversionRate)
	}
	// inv-1 (overdue) + inv-3 (sent, not yet due).
	if got.OutstandingTotal != 480.50+300 {
		t.Errorf("expected outstanding %.2f, got %.2f", 480.50+300, got.OutstandingTotal)
	}
	if got.OverdueTotal != 480.50 || got.OverdueCount != 1 {
		t.Errorf("expected overdue 480.50/1, got %.2f/%d", got.OverdueTotal, got.OverdueCount)
	}
}

func TestDashboardSummary_MonthlyRevenueBuckets(t *testing.T) {
	stats := &mockStatsSource{payments: []domain.Payment{
		{ID: "p1", Amount: 100, PaidAt: testToday},
		{ID: "p2", Amount: 50, PaidAt: testToday.AddDate(0, 0, -1)},
		{ID: "p3", Amount: 25, PaidAt: testToday.AddDate(0, -3, 0)},
	}}
	svc := newTestStatsService(&mockInvoiceSource{}, stats)

	got, err := svc.DashboardSummary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.MonthlyRevenue) != monthsOfRevenue {
		t.Fatalf("expected %d months, got %d", monthsOfRevenue, len(got.MonthlyRevenue))
	}
	last := got.MonthlyRevenue[len(got.MonthlyRevenue)-1]
	if last.Month != testToday.Format("2006-01") {
		t.Errorf("expected last bucket %s, got %s", testToday.Format("2006-01"), last.Month)
	}
	if last.Revenue != 150 || last.Count != 2 {
		t.Errorf("expected current month 150/2, got %.2f/%d", last.Revenue, last.Count)
	}

	var total float64
	for _, p := range got.MonthlyRevenue {
		total += p.Revenue
	}
	if total != 175 {
		t.Errorf("expected 175 across window, got %.2f", total)
	}
}

func TestDashboardSummary_MonthlyRevenueContinuousAxis(t *testing.T) {
	svc := newTestStatsService(&mockInvoiceSource{}, &mockStatsSource{})

	got, err := svc.DashboardSummary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prev := ""
	for _, p := range got.MonthlyRevenue {
		if p.Month <= prev {
			t.Fatalf("months not strictly increasing: %s after %s", p.Month, prev)
		}
		prev = p.Month
	}
}

func TestDashboardSummary_TopClients(t *testing.T) {
	inv := &mockInvoiceSource{invoices: []domain.Invoice{
		{ID: "1", ClientName: "Aubert", TotalAmount: 100, Status: domain.InvoiceStatusPaid},
		{ID: "2", ClientName: "Aubert", TotalAmount: 200, Status: domain.InvoiceStatusSent, DueDate: testToday.AddDate(0, 0, 5)},
		{ID: "3", ClientName: "Blanc", TotalAmount: 250, Status: domain.InvoiceStatusPaid},
		// Drafts do not count toward billing.
		{ID: "4", ClientName: "Blanc", TotalAmount: 5000, Status: domain.InvoiceStatusDraft},
		{ID: "5", ClientName: "Costa", TotalAmount: 250, Status: domain.InvoiceStatusPaid},
	}}
	svc := newTestStatsService(inv, &mockStatsSource{})

	got, err := svc.DashboardSummary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.TopClients) != 3 {
		t.Fatalf("expected 3 clients, got %d", len(got.TopClients))
	}
	if got.TopClients[0].ClientName != "Aubert" || got.TopClients[0].TotalBilled != 300 {
		t.Errorf("unexpected first client: %+v", got.TopClients[0])
	}
	// Equal totals break the tie by name.
	if got.TopClients[1].ClientName != "Blanc" || got.TopClients[2].ClientName != "Costa" {
		t.Errorf("unexpected tie-break order: %+v", got.TopClients[1:])
	}
}

func TestDashboardSummary_SourceErrorPropagates(t *testing.T) {
	stats := &mockStatsSource{quotesErr: errors.New("postgrest 502")}
	svc := newTestStatsService(&mockInvoiceSource{}, stats)

	if _, err := svc.DashboardSummary(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when a source fails")
	}
}

func TestDashboardSummary_NoQuotesZeroConversion(t *testing.T) {
	svc := newTestStatsService(&mockInvoiceSource{}, &mockStatsSource{})

	got, err := svc.DashboardSummary(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ConversionRate != 0 {
		t.Errorf("expected zero conversion with no quotes, got %f", got.ConversionRate)
	}
	if got.GeneratedAt == "" {
		t.Error("expected generated_at set")
	}
	if _, err := time.Parse(time.RFC3339, got.GeneratedAt); err != nil {
		t.Errorf("generated_at not RFC3339: %v", err)
	}
}
