package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
)

func sampleInvoice() *invoice.Invoice {
	return &invoice.Invoice{
		ID:        1,
		Number:    "INV-2025-26-00042",
		IssueDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		Customer: invoice.Customer{
			Name:    "Acme Traders",
			Address: "12 MG Road, Bengaluru",
			GSTIN:   "29ABCDE1234F1Z5",
		},
		Items: []invoice.LineItem{
			{
				Description: "Consulting",
				HSNCode:     "9983",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("500.00"),
				Rate:        invoice.Rate18,
				Tax: invoice.TaxBreakdown{
					TaxableValue: decimal.RequireFromString("1000.00"),
					CGST:         decimal.RequireFromString("90.00"),
					SGST:         decimal.RequireFromString("90.00"),
					TaxAmount:    decimal.RequireFromString("180.00"),
					LineTotal:    decimal.RequireFromString("1180.00"),
				},
			},
		},
		IntraState:    true,
		Subtotal:      decimal.RequireFromString("1000.00"),
		TotalCGST:     decimal.RequireFromString("90.00"),
		TotalSGST:     decimal.RequireFromString("90.00"),
		TotalTax:      decimal.RequireFromString("180.00"),
		GrandTotal:    decimal.RequireFromString("1180.00"),
		Status:        invoice.StatusIssued,
		PaymentStatus: invoice.PaymentPending,
	}
}

func TestBuildHTMLIntraState(t *testing.T) {
	doc, err := NewDocument(nil, invoice.SellerProfile{
		Name:    "Bunny Enterprises",
		Address: "1 Residency Road, Bengaluru",
		GSTIN:   "29AAAAA0000A1Z5",
	})
	require.NoError(t, err)

	html, err := doc.BuildHTML(sampleInvoice())
	require.NoError(t, err)
	require.Contains(t, html, "INV-2025-26-00042")
	require.Contains(t, html, "Acme Traders")
	require.Contains(t, html, "CGST")
	require.Contains(t, html, "SGST")
	require.NotContains(t, html, "IGST")
	require.Contains(t, html, "1,180.00")
	require.NotContains(t, html, "CANCELLED")
}

func TestBuildHTMLInterState(t *testing.T) {
	doc, err := NewDocument(nil, invoice.SellerProfile{Name: "Bunny Enterprises", GSTIN: "29AAAAA0000A1Z5"})
	require.NoError(t, err)

	inv := sampleInvoice()
	inv.IntraState = false
	inv.TotalCGST = decimal.Zero
	inv.TotalSGST = decimal.Zero
	inv.TotalIGST = decimal.RequireFromString("180.00")
	inv.Items[0].Tax.CGST = decimal.Zero
	inv.Items[0].Tax.SGST = decimal.Zero
	inv.Items[0].Tax.IGST = decimal.RequireFromString("180.00")

	html, err := doc.BuildHTML(inv)
	require.NoError(t, err)
	require.Contains(t, html, "IGST")
	require.NotContains(t, html, "CGST")
}

func TestBuildHTMLMarksCancelled(t *testing.T) {
	doc, err := NewDocument(nil, invoice.SellerProfile{Name: "Bunny Enterprises"})
	require.NoError(t, err)

	inv := sampleInvoice()
	inv.Status = invoice.StatusCancelled

	html, err := doc.BuildHTML(inv)
	require.NoError(t, err)
	require.Contains(t, html, "CANCELLED")
}
