package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	summary     Summary
	outstanding []OutstandingInvoice
	gotFrom     time.Time
	gotTo       time.Time
}

func (f *fakeRepo) RevenueSummary(_ context.Context, from, to time.Time) (Summary, error) {
	f.gotFrom, f.gotTo = from, to
	s := f.summary
	s.From, s.To = from, to
	return s, nil
}

func (f *fakeRepo) ListOutstanding(context.Context) ([]OutstandingInvoice, error) {
	return f.outstanding, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
}

func TestGetSummaryDefaultsToTrailingThirtyDays(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	svc.WithNow(fixedNow)

	_, err := svc.GetSummary(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, fixedNow(), repo.gotTo)
	require.Equal(t, fixedNow().AddDate(0, 0, -30), repo.gotFrom)
}

func TestGetAgingBucketsByDaysOverdue(t *testing.T) {
	asOf := fixedNow()
	repo := &fakeRepo{outstanding: []OutstandingInvoice{
		{Number: "INV-2025-26-00001", DueDate: asOf.AddDate(0, 0, 10), Outstanding: decimal.NewFromInt(100)},
		{Number: "INV-2025-26-00002", DueDate: asOf.AddDate(0, 0, -15), Outstanding: decimal.NewFromInt(200)},
		{Number: "INV-2025-26-00003", DueDate: asOf.AddDate(0, 0, -45), Outstanding: decimal.NewFromInt(300)},
		{Number: "INV-2025-26-00004", DueDate: asOf.AddDate(0, 0, -75), Outstanding: decimal.NewFromInt(400)},
		{Number: "INV-2025-26-00005", DueDate: asOf.AddDate(0, 0, -200), Outstanding: decimal.NewFromInt(500)},
	}}
	svc := NewService(repo)
	svc.WithNow(fixedNow)

	buckets, err := svc.GetAging(context.Background(), asOf)
	require.NoError(t, err)
	require.True(t, buckets.Current.Equal(decimal.NewFromInt(100)))
	require.True(t, buckets.Bucket30.Equal(decimal.NewFromInt(200)))
	require.True(t, buckets.Bucket60.Equal(decimal.NewFromInt(300)))
	require.True(t, buckets.Bucket90.Equal(decimal.NewFromInt(400)))
	require.True(t, buckets.Bucket120.Equal(decimal.NewFromInt(500)))
}

func TestGetDashboardCombinesViews(t *testing.T) {
	repo := &fakeRepo{
		summary: Summary{InvoiceCount: 3, TotalBilled: decimal.NewFromInt(3540)},
		outstanding: []OutstandingInvoice{
			{Number: "INV-2025-26-00009", DueDate: fixedNow().AddDate(0, 0, -5), Outstanding: decimal.NewFromInt(1180)},
		},
	}
	svc := NewService(repo)
	svc.WithNow(fixedNow)

	dash, err := svc.GetDashboard(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 3, dash.Summary.InvoiceCount)
	require.True(t, dash.Aging.Bucket30.Equal(decimal.NewFromInt(1180)))
}
