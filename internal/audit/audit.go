// Package audit keeps an append-only trail of engine actions: invoice
// creation, cancellation and payment recording. Best effort by design;
// a failed audit write never fails the business operation.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded by the engine.
const (
	ActionInvoiceCreated   = "invoice.created"
	ActionInvoiceCancelled = "invoice.cancelled"
	ActionPaymentRecorded  = "payment.recorded"
)

// Entry is one audit record.
type Entry struct {
	ID        uuid.UUID
	Actor     string
	Action    string
	Entity    string
	EntityRef string
	Detail    string
	CreatedAt time.Time
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Repository persists audit entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record appends one entry, assigning its id and timestamp.
func (r *Repository) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (id, actor, action, entity, entity_ref, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.Actor, entry.Action, entry.Entity, entry.EntityRef, entry.Detail)
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor, action, entity, entity_ref, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityRef, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Nop discards entries; used when auditing is disabled and in tests.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }
