package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// IsIntraState reports whether a supply is intra-state by comparing the
// two-digit state codes of the seller and buyer GSTINs. When either
// party is unregistered the supply is treated as intra-state, matching
// the upstream convention for walk-in customers.
func IsIntraState(sellerGSTIN, buyerGSTIN string) bool {
	if len(sellerGSTIN) < 2 || len(buyerGSTIN) < 2 {
		return true
	}
	return sellerGSTIN[:2] == buyerGSTIN[:2]
}

// Compute derives the tax breakdown for one line item. Taxable value is
// quantity x unit price, exact. Each monetary component is rounded
// half-up to two decimals at the line level; invoice totals are sums of
// already-rounded line values, so they match GST return filings paisa
// for paisa.
//
// A rate outside the notified slabs returns ErrUnsupportedRate. The
// validator guarantees that never happens for user input, so the error
// marks a programming mistake and must not be swallowed.
func Compute(item LineItem, intraState bool) (TaxBreakdown, error) {
	if !item.Rate.Valid() {
		return TaxBreakdown{}, fmt.Errorf("%w: %d%% on %q", ErrUnsupportedRate, item.Rate, item.Description)
	}

	taxable := item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
	rate := decimal.NewFromInt(int64(item.Rate)).Div(hundred)

	bd := TaxBreakdown{TaxableValue: taxable}
	if intraState {
		// CGST and SGST are each half the slab rate, rounded per
		// component. Round is half away from zero, which on these
		// non-negative amounts is exactly half-up.
		half := taxable.Mul(rate).Div(two).Round(2)
		bd.CGST = half
		bd.SGST = half
		bd.TaxAmount = half.Add(half)
	} else {
		bd.IGST = taxable.Mul(rate).Round(2)
		bd.TaxAmount = bd.IGST
	}
	bd.LineTotal = taxable.Add(bd.TaxAmount)
	return bd, nil
}

// Totals aggregates per-line breakdowns into invoice-level figures.
type Totals struct {
	Subtotal   decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	IGST       decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeAll fills in the tax breakdown of every item and returns the
// invoice totals. Items are aggregated after line-level rounding, never
// before.
func ComputeAll(items []LineItem, intraState bool) ([]LineItem, Totals, error) {
	var t Totals
	t.Subtotal, t.CGST, t.SGST, t.IGST = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	t.Tax, t.GrandTotal = decimal.Zero, decimal.Zero

	out := make([]LineItem, len(items))
	for i, item := range items {
		bd, err := Compute(item, intraState)
		if err != nil {
			return nil, Totals{}, err
		}
		item.Tax = bd
		out[i] = item

		t.Subtotal = t.Subtotal.Add(bd.TaxableValue)
		t.CGST = t.CGST.Add(bd.CGST)
		t.SGST = t.SGST.Add(bd.SGST)
		t.IGST = t.IGST.Add(bd.IGST)
		t.Tax = t.Tax.Add(bd.TaxAmount)
		t.GrandTotal = t.GrandTotal.Add(bd.LineTotal)
	}
	return out, t, nil
}
