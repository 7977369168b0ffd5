package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/platform/db"
)

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the invoice repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

// CreateInvoice reserves the next number in the series and inserts the
// invoice in one transaction. The counter row upsert takes a row lock,
// so concurrent creators serialize on the series and a rolled-back
// validation failure never advances the sequence. A unique violation on
// the number index maps to ErrNumberingConflict.
func (r *Repository) CreateInvoice(ctx context.Context, input CreateRecord) (*Invoice, error) {
	var inv *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_series (series, last_seq) VALUES ($1, 1)
			ON CONFLICT (series) DO UPDATE SET last_seq = invoice_series.last_seq + 1
			RETURNING last_seq
		`, input.Series).Scan(&seq)
		if err != nil {
			return fmt.Errorf("invoice: reserve number: %w", err)
		}
		number := FormatNumber(input.Series, seq, input.Pad)

		row := Invoice{
			Number:        number,
			Series:        input.Series,
			IssueDate:     input.IssueDate,
			DueDate:       input.DueDate,
			Customer:      input.Customer,
			IntraState:    input.IntraState,
			Subtotal:      input.Totals.Subtotal,
			TotalCGST:     input.Totals.CGST,
			TotalSGST:     input.Totals.SGST,
			TotalIGST:     input.Totals.IGST,
			TotalTax:      input.Totals.Tax,
			GrandTotal:    input.Totals.GrandTotal,
			Status:        StatusIssued,
			PaymentStatus: PaymentPending,
			Notes:         input.Notes,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (
				number, series, issue_date, due_date,
				customer_name, customer_address, customer_phone, customer_email, customer_gstin,
				intra_state, subtotal, total_cgst, total_sgst, total_igst, total_tax, grand_total,
				status, payment_status, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING id, created_at, updated_at
		`,
			row.Number, row.Series, row.IssueDate, row.DueDate,
			row.Customer.Name, row.Customer.Address, row.Customer.Phone, row.Customer.Email, row.Customer.GSTIN,
			row.IntraState, row.Subtotal, row.TotalCGST, row.TotalSGST, row.TotalIGST, row.TotalTax, row.GrandTotal,
			row.Status, row.PaymentStatus, row.Notes,
		).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", ErrNumberingConflict, number)
			}
			return fmt.Errorf("invoice: insert: %w", err)
		}

		for i, item := range input.Items {
			err := tx.QueryRow(ctx, `
				INSERT INTO invoice_lines (
					invoice_id, line_order, description, hsn_code, quantity, unit_price, gst_rate,
					taxable_value, cgst, sgst, igst, tax_amount, line_total
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				RETURNING id
			`,
				row.ID, i, item.Description, item.HSNCode, item.Quantity, item.UnitPrice, int(item.Rate),
				item.Tax.TaxableValue, item.Tax.CGST, item.Tax.SGST, item.Tax.IGST, item.Tax.TaxAmount, item.Tax.LineTotal,
			).Scan(&input.Items[i].ID)
			if err != nil {
				return fmt.Errorf("invoice: insert line: %w", err)
			}
		}
		row.Items = input.Items
		inv = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

const invoiceColumns = `
	id, number, series, issue_date, due_date,
	customer_name, customer_address, customer_phone, customer_email, customer_gstin,
	intra_state, subtotal::text, total_cgst::text, total_sgst::text, total_igst::text,
	total_tax::text, grand_total::text, status, payment_status, notes, created_at, updated_at
`

// GetInvoice loads an invoice with its lines.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return r.getInvoice(ctx, "id = $1", id)
}

// GetInvoiceByNumber loads an invoice by its document number.
func (r *Repository) GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error) {
	return r.getInvoice(ctx, "number = $1", number)
}

func (r *Repository) getInvoice(ctx context.Context, where string, arg any) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE `+where, arg)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.pool.Query(ctx, `
		SELECT id, description, hsn_code, quantity, unit_price::text, gst_rate,
		       taxable_value::text, cgst::text, sgst::text, igst::text, tax_amount::text, line_total::text
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_order, id
	`, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("invoice: query lines: %w", err)
	}
	defer lines.Close()

	for lines.Next() {
		var (
			item LineItem
			rate int
			p, tv, cg, sg, ig, ta, lt string
		)
		if err := lines.Scan(&item.ID, &item.Description, &item.HSNCode, &item.Quantity,
			&p, &rate, &tv, &cg, &sg, &ig, &ta, &lt); err != nil {
			return nil, fmt.Errorf("invoice: scan line: %w", err)
		}
		item.Rate = GSTRate(rate)
		if item.UnitPrice, err = decimal.NewFromString(p); err != nil {
			return nil, fmt.Errorf("invoice: parse unit price: %w", err)
		}
		if item.Tax, err = parseBreakdown(tv, cg, sg, ig, ta, lt); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns invoices matching the filter, newest first.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	if req.Status != "" {
		args = append(args, req.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if req.PaymentStatus != "" {
		args = append(args, req.PaymentStatus)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if req.Number != "" {
		args = append(args, "%"+req.Number+"%")
		query += fmt.Sprintf(" AND number ILIKE $%d", len(args))
	}
	if req.CustomerName != "" {
		args = append(args, "%"+req.CustomerName+"%")
		query += fmt.Sprintf(" AND customer_name ILIKE $%d", len(args))
	}
	if !req.IssuedFrom.IsZero() {
		args = append(args, req.IssuedFrom)
		query += fmt.Sprintf(" AND issue_date >= $%d", len(args))
	}
	if !req.IssuedTo.IsZero() {
		args = append(args, req.IssuedTo)
		query += fmt.Sprintf(" AND issue_date <= $%d", len(args))
	}
	args = append(args, req.Limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoice: list: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// CancelInvoice marks an unpaid issued invoice cancelled. The row and
// its number are retained.
func (r *Repository) CancelInvoice(ctx context.Context, id int64, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $1, cancel_reason = $2, updated_at = now()
		WHERE id = $3 AND status = $4 AND payment_status = $5
	`, StatusCancelled, reason, id, StatusIssued, PaymentPending)
	if err != nil {
		return fmt.Errorf("invoice: cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetInvoice(ctx, id); err != nil {
			return err
		}
		return ErrNotCancellable
	}
	return nil
}

// ListOverdue returns issued invoices past due with money outstanding.
func (r *Repository) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status = $1 AND payment_status IN ($2, $3) AND due_date < $4
		ORDER BY due_date
	`, StatusIssued, PaymentPending, PaymentPartial, asOf)
	if err != nil {
		return nil, fmt.Errorf("invoice: list overdue: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// CreateRecurringProfile stores an invoice template. Customer and items
// are kept as JSON in their raw form.
func (r *Repository) CreateRecurringProfile(ctx context.Context, profile RecurringProfile) (*RecurringProfile, error) {
	customer, err := json.Marshal(profile.Customer)
	if err != nil {
		return nil, fmt.Errorf("invoice: marshal recurring customer: %w", err)
	}
	items, err := json.Marshal(profile.Items)
	if err != nil {
		return nil, fmt.Errorf("invoice: marshal recurring items: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO recurring_profiles (name, customer, items, notes, frequency, next_run_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, profile.Name, customer, items, profile.Notes, profile.Frequency, profile.NextRunAt, profile.Active,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invoice: insert recurring profile: %w", err)
	}
	return &profile, nil
}

// ListDueRecurring returns active profiles whose next run is at or
// before asOf.
func (r *Repository) ListDueRecurring(ctx context.Context, asOf time.Time) ([]RecurringProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, customer, items, notes, frequency, next_run_at, active, created_at, updated_at
		FROM recurring_profiles
		WHERE active AND next_run_at <= $1
		ORDER BY next_run_at
	`, asOf)
	if err != nil {
		return nil, fmt.Errorf("invoice: list due recurring: %w", err)
	}
	defer rows.Close()

	var out []RecurringProfile
	for rows.Next() {
		var (
			p              RecurringProfile
			customer, items []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &customer, &items, &p.Notes,
			&p.Frequency, &p.NextRunAt, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("invoice: scan recurring profile: %w", err)
		}
		if err := json.Unmarshal(customer, &p.Customer); err != nil {
			return nil, fmt.Errorf("invoice: unmarshal recurring customer: %w", err)
		}
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, fmt.Errorf("invoice: unmarshal recurring items: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkRecurringRun advances a profile's schedule after a run.
func (r *Repository) MarkRecurringRun(ctx context.Context, profileID int64, nextRunAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE recurring_profiles SET next_run_at = $1, updated_at = now() WHERE id = $2
	`, nextRunAt, profileID)
	return err
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv Invoice
		sub, cg, sg, ig, tax, grand string
	)
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.Series, &inv.IssueDate, &inv.DueDate,
		&inv.Customer.Name, &inv.Customer.Address, &inv.Customer.Phone, &inv.Customer.Email, &inv.Customer.GSTIN,
		&inv.IntraState, &sub, &cg, &sg, &ig, &tax, &grand,
		&inv.Status, &inv.PaymentStatus, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inv.Subtotal, err = decimal.NewFromString(sub); err != nil {
		return nil, fmt.Errorf("invoice: parse subtotal: %w", err)
	}
	if inv.TotalCGST, err = decimal.NewFromString(cg); err != nil {
		return nil, fmt.Errorf("invoice: parse cgst: %w", err)
	}
	if inv.TotalSGST, err = decimal.NewFromString(sg); err != nil {
		return nil, fmt.Errorf("invoice: parse sgst: %w", err)
	}
	if inv.TotalIGST, err = decimal.NewFromString(ig); err != nil {
		return nil, fmt.Errorf("invoice: parse igst: %w", err)
	}
	if inv.TotalTax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("invoice: parse total tax: %w", err)
	}
	if inv.GrandTotal, err = decimal.NewFromString(grand); err != nil {
		return nil, fmt.Errorf("invoice: parse grand total: %w", err)
	}
	return &inv, nil
}

func parseBreakdown(tv, cg, sg, ig, ta, lt string) (TaxBreakdown, error) {
	var (
		bd  TaxBreakdown
		err error
	)
	if bd.TaxableValue, err = decimal.NewFromString(tv); err != nil {
		return bd, fmt.Errorf("invoice: parse taxable value: %w", err)
	}
	if bd.CGST, err = decimal.NewFromString(cg); err != nil {
		return bd, fmt.Errorf("invoice: parse line cgst: %w", err)
	}
	if bd.SGST, err = decimal.NewFromString(sg); err != nil {
		return bd, fmt.Errorf("invoice: parse line sgst: %w", err)
	}
	if bd.IGST, err = decimal.NewFromString(ig); err != nil {
		return bd, fmt.Errorf("invoice: parse line igst: %w", err)
	}
	if bd.TaxAmount, err = decimal.NewFromString(ta); err != nil {
		return bd, fmt.Errorf("invoice: parse line tax: %w", err)
	}
	if bd.LineTotal, err = decimal.NewFromString(lt); err != nil {
		return bd, fmt.Errorf("invoice: parse line total: %w", err)
	}
	return bd, nil
}
