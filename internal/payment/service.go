package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
)

// RepositoryPort defines ledger data access. AppendEvent must serialize
// appends per invoice (the Postgres implementation locks the invoice
// row) and run Check against the complete event sequence before
// inserting, so no two concurrent payments pass the overpayment guard
// on a stale balance.
type RepositoryPort interface {
	AppendEvent(ctx context.Context, input AppendInput) (*invoice.Invoice, *Event, error)
	ListEvents(ctx context.Context, invoiceID int64) ([]Event, error)
	GetInvoice(ctx context.Context, invoiceID int64) (*invoice.Invoice, error)
}

// AppendInput describes a payment to record.
type AppendInput struct {
	InvoiceID     int64
	Amount        decimal.Decimal
	Method        Method
	TransactionID string
	Note          string
}

// RecordPaymentInput is the raw request from the API layer.
type RecordPaymentInput struct {
	InvoiceID     int64
	Amount        decimal.Decimal
	Method        string
	TransactionID string
	Note          string
}

// Service exposes ledger operations. Pure computations live in
// domain.go; the service validates input shape and delegates the
// serialized append to the repository.
type Service struct {
	repo RepositoryPort
}

// NewService builds the ledger service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RecordPayment appends a payment event and returns the invoice with
// its re-derived settlement state. Fails with ErrInvalidAmount,
// ErrInvalidMethod, ErrOverpayment or invoice.ErrNotFound; a rejected
// event leaves the ledger untouched.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*invoice.Invoice, *Event, error) {
	if !input.Amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}
	method, err := ParseMethod(input.Method)
	if err != nil {
		return nil, nil, err
	}
	return s.repo.AppendEvent(ctx, AppendInput{
		InvoiceID:     input.InvoiceID,
		Amount:        input.Amount,
		Method:        method,
		TransactionID: input.TransactionID,
		Note:          input.Note,
	})
}

// OutstandingBalance folds the full event history against the grand
// total. Never negative.
func (s *Service) OutstandingBalance(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	events, err := s.repo.ListEvents(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	return Outstanding(inv.GrandTotal, events), nil
}

// History returns the lifetime-ordered payment events of an invoice.
func (s *Service) History(ctx context.Context, invoiceID int64) ([]Event, error) {
	if _, err := s.repo.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, invoiceID)
}
