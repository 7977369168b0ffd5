package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs reporting queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RevenueSummary aggregates issued invoices and their collections in
// the period. Cancelled invoices are excluded.
func (r *Repository) RevenueSummary(ctx context.Context, from, to time.Time) (Summary, error) {
	s := Summary{From: from, To: to}

	var billed, tax, collected string
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(i.grand_total), 0)::text,
		       COALESCE(SUM(i.total_tax), 0)::text,
		       COALESCE((
		           SELECT SUM(p.amount)
		           FROM payment_events p
		           JOIN invoices pi ON pi.id = p.invoice_id
		           WHERE pi.status = 'ISSUED' AND pi.issue_date BETWEEN $1 AND $2
		       ), 0)::text
		FROM invoices i
		WHERE i.status = 'ISSUED' AND i.issue_date BETWEEN $1 AND $2
	`, from, to).Scan(&s.InvoiceCount, &billed, &tax, &collected)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: revenue summary: %w", err)
	}

	if s.TotalBilled, err = decimal.NewFromString(billed); err != nil {
		return Summary{}, fmt.Errorf("analytics: parse billed: %w", err)
	}
	if s.TotalTax, err = decimal.NewFromString(tax); err != nil {
		return Summary{}, fmt.Errorf("analytics: parse tax: %w", err)
	}
	if s.TotalCollected, err = decimal.NewFromString(collected); err != nil {
		return Summary{}, fmt.Errorf("analytics: parse collected: %w", err)
	}
	s.TotalOutstanding = s.TotalBilled.Sub(s.TotalCollected)
	return s, nil
}

// ListOutstanding returns every issued invoice with an open balance.
func (r *Repository) ListOutstanding(ctx context.Context) ([]OutstandingInvoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.number, i.due_date,
		       (i.grand_total - COALESCE(SUM(p.amount), 0))::text
		FROM invoices i
		LEFT JOIN payment_events p ON p.invoice_id = i.id
		WHERE i.status = 'ISSUED' AND i.payment_status IN ('Pending', 'Partial')
		GROUP BY i.id, i.number, i.due_date, i.grand_total
		ORDER BY i.due_date
	`)
	if err != nil {
		return nil, fmt.Errorf("analytics: list outstanding: %w", err)
	}
	defer rows.Close()

	var out []OutstandingInvoice
	for rows.Next() {
		var (
			inv     OutstandingInvoice
			balance string
		)
		if err := rows.Scan(&inv.InvoiceID, &inv.Number, &inv.DueDate, &balance); err != nil {
			return nil, fmt.Errorf("analytics: scan outstanding: %w", err)
		}
		if inv.Outstanding, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("analytics: parse outstanding: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
