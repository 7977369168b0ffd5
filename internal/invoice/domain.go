package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GSTRate is one of the rate slabs notified under Indian GST.
type GSTRate int

const (
	RateExempt GSTRate = 0
	Rate5      GSTRate = 5
	Rate12     GSTRate = 12
	Rate18     GSTRate = 18
	Rate28     GSTRate = 28
)

var gstRates = map[GSTRate]struct{}{
	RateExempt: {},
	Rate5:      {},
	Rate12:     {},
	Rate18:     {},
	Rate28:     {},
}

// Valid reports whether the rate belongs to the notified slab set.
func (r GSTRate) Valid() bool {
	_, ok := gstRates[r]
	return ok
}

// ParseGSTRate converts a raw percentage into a GSTRate.
func ParseGSTRate(v int) (GSTRate, error) {
	r := GSTRate(v)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d%%", ErrUnsupportedRate, v)
	}
	return r, nil
}

// InvoiceStatus enumerates invoice lifecycle statuses.
type InvoiceStatus string

const (
	StatusIssued    InvoiceStatus = "ISSUED"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

// PaymentStatus enumerates settlement states derived from payment history.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

// TaxBreakdown carries the computed tax split for one line item.
// Intra-state supplies populate CGST/SGST, inter-state supplies IGST;
// the two are mutually exclusive.
type TaxBreakdown struct {
	TaxableValue decimal.Decimal
	CGST         decimal.Decimal
	SGST         decimal.Decimal
	IGST         decimal.Decimal
	TaxAmount    decimal.Decimal
	LineTotal    decimal.Decimal
}

// LineItem is a validated invoice line with its computed tax breakdown.
type LineItem struct {
	ID          int64
	Description string
	HSNCode     string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Rate        GSTRate
	Tax         TaxBreakdown
}

// Customer is a validated billing party.
type Customer struct {
	ID      int64
	Name    string
	Address string
	Phone   string
	Email   string
	GSTIN   string
}

// StateCode returns the two-digit GST state code, or "" when the
// customer is unregistered.
func (c Customer) StateCode() string {
	if len(c.GSTIN) < 2 {
		return ""
	}
	return c.GSTIN[:2]
}

// Invoice is the persisted invoice record. Number, customer, items and
// computed totals are immutable after creation; only payment state and
// the cancellation marker change afterwards.
type Invoice struct {
	ID            int64
	Number        string
	Series        string
	IssueDate     time.Time
	DueDate       time.Time
	Customer      Customer
	Items         []LineItem
	IntraState    bool
	Subtotal      decimal.Decimal
	TotalCGST     decimal.Decimal
	TotalSGST     decimal.Decimal
	TotalIGST     decimal.Decimal
	TotalTax      decimal.Decimal
	GrandTotal    decimal.Decimal
	Status        InvoiceStatus
	PaymentStatus PaymentStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecomputedGrandTotal re-derives the grand total from the per-line
// breakdowns. The stored grand total must always match this value.
func (inv *Invoice) RecomputedGrandTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range inv.Items {
		sum = sum.Add(item.Tax.LineTotal)
	}
	return sum
}

// CheckTotals verifies the stored grand total against a fresh
// derivation from the line breakdowns.
func (inv *Invoice) CheckTotals() error {
	if derived := inv.RecomputedGrandTotal(); !derived.Equal(inv.GrandTotal) {
		return fmt.Errorf("%w: stored %s, derived %s for %s",
			ErrTotalsMismatch, inv.GrandTotal, derived, inv.Number)
	}
	return nil
}

// FiscalYear returns the Indian fiscal year label (April to March) the
// given date falls in, e.g. "2025-26".
func FiscalYear(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// FormatNumber renders a document number for the given series and
// sequence, e.g. FormatNumber("INV-2025-26", 42, 5) -> "INV-2025-26-00042".
func FormatNumber(series string, seq int64, pad int) string {
	return fmt.Sprintf("%s-%0*d", series, pad, seq)
}
