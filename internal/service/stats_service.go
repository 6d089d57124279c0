package service

import (
	"context"
	"sort"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var statsTracer = otel.Tracer("service/stats")

// monthsOfRevenue is how far back the monthly revenue series goes.
const monthsOfRevenue = 12

// topClientsLimit caps the top-clients ranking.
const topClientsLimit = 5

// StatsService aggregates invoices, quotes and payments into the
// dashboard summary.
type StatsService struct {
	invoices port.InvoiceSource
	stats    port.StatsSource
	clock    port.Clock
	logger   *zap.Logger
}

func NewStatsService(invoices port.InvoiceSource, stats port.StatsSource, clock port.Clock, logger *zap.Logger) *StatsService {
	return &StatsService{
		invoices: invoices,
		stats:    stats,
		clock:    clock,
		logger:   logger,
	}
}

// DashboardSummary fetches invoices, quotes and payments concurrently
// and computes the aggregates. All three sources must answer: a summary
// built on partial data would silently misreport revenue.
func (s *StatsService) DashboardSummary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	ctx, span := statsTracer.Start(ctx, "StatsService.DashboardSummary")
	defer span.End()

	var (
		invoices []domain.Invoice
		quotes   []domain.Quote
		payments []domain.Payment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = s.invoices.ListInvoices(gctx, userID, "")
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = s.stats.ListQuotes(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.stats.ListPayments(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	summary := &domain.DashboardSummary{
		MonthlyRevenue: monthlyRevenue(payments, now),
		TopClients:     topClients(invoices),
		InvoiceCount:   len(invoices),
		QuoteCount:     len(quotes),
		GeneratedAt:    now.UTC().Format(time.RFC3339),
	}

	decided := 0
	for _, q := range quotes {
		switch q.Status {
		case domain.QuoteStatusAccepted:
			summary.AcceptedQuoteCount++
			decided++
		case domain.QuoteStatusSent, domain.QuoteStatusRejected:
			decided++
		}
	}
	if decided > 0 {
		summary.ConversionRate = float64(summary.AcceptedQuoteCount) / float64(decided)
	}

	for _, inv := range invoices {
		if !inv.ReminderEligible() {
			continue
		}
		summary.OutstandingTotal += inv.TotalAmount
		if inv.DaysLate(now) > 0 {
			summary.OverdueTotal += inv.TotalAmount
			summary.OverdueCount++
		}
	}

	return summary, nil
}

// monthlyRevenue buckets payments by month over the trailing window,
// oldest first. Months with no payments still appear with zero revenue
// so the chart has a continuous axis.
func monthlyRevenue(payments []domain.Payment, now time.Time) []domain.MonthlyRevenuePoint {
	byMonth := make(map[string]*domain.MonthlyRevenuePoint, monthsOfRevenue)
	points := make([]domain.MonthlyRevenuePoint, 0, monthsOfRevenue)

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsOfRevenue - 1), 0)
	for i := 0; i < monthsOfRevenue; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		points = append(points, domain.MonthlyRevenuePoint{Month: month})
		byMonth[month] = &points[len(points)-1]
	}

	for _, p := range payments {
		if p.PaidAt.IsZero() {
			continue
		}
		point, ok := byMonth[p.PaidAt.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		point.Revenue += p.Amount
		point.Count++
	}

	return points
}

// topClients ranks clients by total billed amount across all invoices
// except drafts and cancellations.
func topClients(invoices []domain.Invoice) []domain.TopClient {
	totals := map[string]*domain.TopClient{}
	for _, inv := range invoices {
		if inv.Status == domain.InvoiceStatusDraft || inv.Status == domain.InvoiceStatusCancelled {
			continue
		}
		if inv.ClientName == "" {
			continue
		}
		tc, ok := totals[inv.ClientName]
		if !ok {
			tc = &domain.TopClient{ClientName: inv.ClientName}
			totals[inv.ClientName] = tc
		}
		tc.TotalBilled += inv.TotalAmount
		tc.InvoiceCount++
	}

	ranked := make([]domain.TopClient, 0, len(totals))
	for _, tc := range totals {
		ranked = append(ranked, *tc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalBilled != ranked[j].TotalBilled {
			return ranked[i].TotalBilled > ranked[j].TotalBilled
		}
		return ranked[i].ClientName < ranked[j].ClientName
	})
	if len(ranked) > topClientsLimit {
		ranked = ranked[:topClientsLimit]
	}
	return ranked
}
