package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/db"
)

// Repository persists payment events in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the payment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AppendEvent records one payment. The invoice row is locked FOR UPDATE
// for the duration of the transaction, so concurrent appends for the
// same invoice serialize and the overpayment check always sees the
// complete event sequence. The stored payment_status is written from
// the same fold that a full replay would produce.
func (r *Repository) AppendEvent(ctx context.Context, input AppendInput) (*invoice.Invoice, *Event, error) {
	var (
		inv   *invoice.Invoice
		event *Event
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockInvoice(ctx, tx, input.InvoiceID)
		if err != nil {
			return err
		}

		events, err := listEvents(ctx, tx, input.InvoiceID)
		if err != nil {
			return err
		}

		if err := Check(locked, events, input.Amount); err != nil {
			return err
		}

		e := Event{
			InvoiceID:     input.InvoiceID,
			Amount:        input.Amount,
			Method:        input.Method,
			TransactionID: input.TransactionID,
			Note:          input.Note,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO payment_events (invoice_id, amount, method, transaction_id, note)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, recorded_at
		`, e.InvoiceID, e.Amount, e.Method, e.TransactionID, e.Note).Scan(&e.ID, &e.RecordedAt)
		if err != nil {
			return fmt.Errorf("payment: insert event: %w", err)
		}

		status := Derive(locked.GrandTotal, append(events, e))
		if _, err := tx.Exec(ctx, `
			UPDATE invoices SET payment_status = $1, updated_at = now() WHERE id = $2
		`, status, input.InvoiceID); err != nil {
			return fmt.Errorf("payment: update status: %w", err)
		}

		locked.PaymentStatus = status
		inv = locked
		event = &e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return inv, event, nil
}

// ListEvents returns the lifetime-ordered events of an invoice.
func (r *Repository) ListEvents(ctx context.Context, invoiceID int64) ([]Event, error) {
	return listEvents(ctx, r.pool, invoiceID)
}

// GetInvoice loads the invoice header the ledger operates on.
func (r *Repository) GetInvoice(ctx context.Context, invoiceID int64) (*invoice.Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, number, grand_total::text, status, payment_status
		FROM invoices WHERE id = $1
	`, invoiceID)
	return scanLedgerInvoice(row)
}

func lockInvoice(ctx context.Context, tx pgx.Tx, invoiceID int64) (*invoice.Invoice, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, number, grand_total::text, status, payment_status
		FROM invoices WHERE id = $1
		FOR UPDATE
	`, invoiceID)
	return scanLedgerInvoice(row)
}

func scanLedgerInvoice(row pgx.Row) (*invoice.Invoice, error) {
	var (
		inv   invoice.Invoice
		grand string
	)
	err := row.Scan(&inv.ID, &inv.Number, &grand, &inv.Status, &inv.PaymentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("payment: load invoice: %w", err)
	}
	if inv.GrandTotal, err = decimal.NewFromString(grand); err != nil {
		return nil, fmt.Errorf("payment: parse grand total: %w", err)
	}
	return &inv, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listEvents(ctx context.Context, q querier, invoiceID int64) ([]Event, error) {
	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, amount::text, method, transaction_id, note, recorded_at
		FROM payment_events
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("payment: query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e      Event
			amount string
		)
		if err := rows.Scan(&e.ID, &e.InvoiceID, &amount, &e.Method, &e.TransactionID, &e.Note, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("payment: scan event: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("payment: parse amount: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
