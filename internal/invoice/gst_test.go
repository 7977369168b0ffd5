package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIsIntraState(t *testing.T) {
	require.True(t, IsIntraState("29AAAAA0000A1Z5", "29ABCDE1234F1Z5"))
	require.False(t, IsIntraState("29AAAAA0000A1Z5", "07FGHIJ5678K1Z3"))
	// Unregistered buyers default to intra-state.
	require.True(t, IsIntraState("29AAAAA0000A1Z5", ""))
	require.True(t, IsIntraState("", "07FGHIJ5678K1Z3"))
}

func TestComputeIntraStateSplitsEvenly(t *testing.T) {
	bd, err := Compute(LineItem{
		Description: "Consulting",
		Quantity:    2,
		UnitPrice:   dec("500.00"),
		Rate:        Rate18,
	}, true)
	require.NoError(t, err)

	require.True(t, bd.TaxableValue.Equal(dec("1000.00")), "taxable %s", bd.TaxableValue)
	require.True(t, bd.CGST.Equal(dec("90.00")), "cgst %s", bd.CGST)
	require.True(t, bd.SGST.Equal(dec("90.00")), "sgst %s", bd.SGST)
	require.True(t, bd.IGST.IsZero())
	require.True(t, bd.TaxAmount.Equal(dec("180.00")))
	require.True(t, bd.LineTotal.Equal(dec("1180.00")))
}

func TestComputeInterStateUsesIGST(t *testing.T) {
	bd, err := Compute(LineItem{
		Description: "Goods",
		Quantity:    1,
		UnitPrice:   dec("2500.00"),
		Rate:        Rate12,
	}, false)
	require.NoError(t, err)

	require.True(t, bd.CGST.IsZero())
	require.True(t, bd.SGST.IsZero())
	require.True(t, bd.IGST.Equal(dec("300.00")))
	require.True(t, bd.TaxAmount.Equal(dec("300.00")))
	require.True(t, bd.LineTotal.Equal(dec("2800.00")))
}

func TestComputeAllRates(t *testing.T) {
	cases := []struct {
		rate      GSTRate
		wantHalf  string
		wantTotal string
	}{
		{RateExempt, "0.00", "1000"},
		{Rate5, "25.00", "1050.00"},
		{Rate12, "60.00", "1120.00"},
		{Rate18, "90.00", "1180.00"},
		{Rate28, "140.00", "1280.00"},
	}
	for _, tc := range cases {
		bd, err := Compute(LineItem{Quantity: 1, UnitPrice: dec("1000.00"), Rate: tc.rate}, true)
		require.NoError(t, err)
		require.True(t, bd.CGST.Equal(dec(tc.wantHalf)), "rate %d cgst %s", tc.rate, bd.CGST)
		require.True(t, bd.LineTotal.Equal(dec(tc.wantTotal)), "rate %d total %s", tc.rate, bd.LineTotal)
	}
}

func TestComputeRoundsHalfUpPerComponent(t *testing.T) {
	// 333.33 at 5% intra: half-tax is 8.33325, which rounds to 8.33 per
	// component, so the line tax is 16.66 and not round(16.6665) = 16.67.
	bd, err := Compute(LineItem{Quantity: 1, UnitPrice: dec("333.33"), Rate: Rate5}, true)
	require.NoError(t, err)
	require.True(t, bd.CGST.Equal(dec("8.33")), "cgst %s", bd.CGST)
	require.True(t, bd.SGST.Equal(dec("8.33")))
	require.True(t, bd.TaxAmount.Equal(dec("16.66")))

	// The same supply inter-state rounds once on the full amount.
	bd, err = Compute(LineItem{Quantity: 1, UnitPrice: dec("333.33"), Rate: Rate5}, false)
	require.NoError(t, err)
	require.True(t, bd.IGST.Equal(dec("16.67")), "igst %s", bd.IGST)
}

func TestComputeRejectsUnknownRate(t *testing.T) {
	_, err := Compute(LineItem{Quantity: 1, UnitPrice: dec("100"), Rate: GSTRate(7)}, true)
	require.ErrorIs(t, err, ErrUnsupportedRate)
}

func TestComputeAllAggregatesAfterLineRounding(t *testing.T) {
	items := []LineItem{
		{Description: "A", Quantity: 1, UnitPrice: dec("333.33"), Rate: Rate5},
		{Description: "B", Quantity: 3, UnitPrice: dec("199.99"), Rate: Rate18},
	}
	out, totals, err := ComputeAll(items, true)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Line B: taxable 599.97, half-tax 53.9973 -> 54.00 each side.
	require.True(t, out[1].Tax.CGST.Equal(dec("54.00")), "cgst %s", out[1].Tax.CGST)

	require.True(t, totals.Subtotal.Equal(dec("933.30")))
	require.True(t, totals.CGST.Equal(dec("62.33")))
	require.True(t, totals.SGST.Equal(dec("62.33")))
	require.True(t, totals.Tax.Equal(dec("124.66")))
	require.True(t, totals.GrandTotal.Equal(dec("1057.96")))

	sum := decimal.Zero
	for _, item := range out {
		sum = sum.Add(item.Tax.LineTotal)
	}
	require.True(t, totals.GrandTotal.Equal(sum))
}
