// Package payment implements the payment ledger: an append-only event
// sequence per invoice whose settlement state is always derived by
// folding the full history, never read from a cached flag.
package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
)

var (
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("payment: amount must be positive")
	// ErrInvalidMethod indicates an unknown payment method.
	ErrInvalidMethod = errors.New("payment: unknown method")
	// ErrOverpayment indicates the event would push the paid total past
	// the grand total. The event is rejected entirely.
	ErrOverpayment = errors.New("payment: amount exceeds outstanding balance")
	// ErrInvoiceCancelled indicates payments against a cancelled invoice.
	ErrInvoiceCancelled = errors.New("payment: invoice is cancelled")
)

// Method enumerates accepted payment methods.
type Method string

const (
	MethodCash         Method = "cash"
	MethodUPI          Method = "upi"
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCheque       Method = "cheque"
	MethodOther        Method = "other"
)

// ParseMethod validates a raw method string.
func ParseMethod(v string) (Method, error) {
	switch m := Method(v); m {
	case MethodCash, MethodUPI, MethodCard, MethodBankTransfer, MethodCheque, MethodOther:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, v)
	}
}

// Event is one recorded payment against an invoice. Events are
// append-only and lifetime-ordered; they are never updated or deleted.
type Event struct {
	ID            int64
	InvoiceID     int64
	Amount        decimal.Decimal
	Method        Method
	TransactionID string
	Note          string
	RecordedAt    time.Time
}

// TotalPaid sums the amounts of an event sequence.
func TotalPaid(events []Event) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range events {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// Derive folds an event sequence into the settlement state. The result
// depends only on the inputs, so replaying history from empty always
// reproduces the stored state.
func Derive(grandTotal decimal.Decimal, events []Event) invoice.PaymentStatus {
	paid := TotalPaid(events)
	switch {
	case paid.IsZero():
		return invoice.PaymentPending
	case paid.LessThan(grandTotal):
		return invoice.PaymentPartial
	default:
		return invoice.PaymentPaid
	}
}

// Outstanding returns grand total minus the paid sum. The overpayment
// guard keeps it from ever going negative.
func Outstanding(grandTotal decimal.Decimal, events []Event) decimal.Decimal {
	return grandTotal.Sub(TotalPaid(events))
}

// Check validates that appending amount to the history of inv is
// allowed. It must run while the invoice's event sequence is stable,
// i.e. under the per-invoice lock taken by the repository.
func Check(inv *invoice.Invoice, events []Event, amount decimal.Decimal) error {
	if inv.Status == invoice.StatusCancelled {
		return ErrInvoiceCancelled
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if TotalPaid(events).Add(amount).GreaterThan(inv.GrandTotal) {
		return ErrOverpayment
	}
	return nil
}
