// Package analytics derives reporting figures from the invoice and
// payment tables: billing totals, collection totals and receivable
// aging. Read-only; it never mutates engine state.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Summary aggregates billing and collection over a period.
type Summary struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	InvoiceCount     int64           `json:"invoice_count"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalTax         decimal.Decimal `json:"total_tax"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// AgingBuckets groups outstanding balances by days past due, the
// standard receivables view.
type AgingBuckets struct {
	Current   decimal.Decimal `json:"current"`
	Bucket30  decimal.Decimal `json:"bucket_30"`
	Bucket60  decimal.Decimal `json:"bucket_60"`
	Bucket90  decimal.Decimal `json:"bucket_90"`
	Bucket120 decimal.Decimal `json:"bucket_120"`
}

// OutstandingInvoice is one unpaid invoice with its open balance.
type OutstandingInvoice struct {
	InvoiceID   int64
	Number      string
	DueDate     time.Time
	Outstanding decimal.Decimal
}

// RepositoryPort defines reporting data access.
type RepositoryPort interface {
	RevenueSummary(ctx context.Context, from, to time.Time) (Summary, error)
	ListOutstanding(ctx context.Context) ([]OutstandingInvoice, error)
}

// Service computes reporting views.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds the analytics service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// GetSummary aggregates billing and collections between from and to.
// Zero bounds default to the trailing 30 days.
func (s *Service) GetSummary(ctx context.Context, from, to time.Time) (Summary, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return s.repo.RevenueSummary(ctx, from, to)
}

// GetAging groups open balances by days overdue as of asOf.
func (s *Service) GetAging(ctx context.Context, asOf time.Time) (AgingBuckets, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	outstanding, err := s.repo.ListOutstanding(ctx)
	if err != nil {
		return AgingBuckets{}, err
	}

	buckets := AgingBuckets{
		Current:   decimal.Zero,
		Bucket30:  decimal.Zero,
		Bucket60:  decimal.Zero,
		Bucket90:  decimal.Zero,
		Bucket120: decimal.Zero,
	}
	for _, inv := range outstanding {
		days := int(asOf.Sub(inv.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			buckets.Current = buckets.Current.Add(inv.Outstanding)
		case days <= 30:
			buckets.Bucket30 = buckets.Bucket30.Add(inv.Outstanding)
		case days <= 60:
			buckets.Bucket60 = buckets.Bucket60.Add(inv.Outstanding)
		case days <= 90:
			buckets.Bucket90 = buckets.Bucket90.Add(inv.Outstanding)
		default:
			buckets.Bucket120 = buckets.Bucket120.Add(inv.Outstanding)
		}
	}
	return buckets, nil
}

// Dashboard bundles the summary and aging views.
type Dashboard struct {
	Summary Summary      `json:"summary"`
	Aging   AgingBuckets `json:"aging"`
}

// GetDashboard fetches summary and aging concurrently.
func (s *Service) GetDashboard(ctx context.Context, from, to time.Time) (Dashboard, error) {
	var out Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.GetSummary(ctx, from, to)
		out.Summary = summary
		return err
	})
	g.Go(func() error {
		aging, err := s.GetAging(ctx, time.Time{})
		out.Aging = aging
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
