package pdf

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
)

// Document turns an invoice into a printable tax invoice. It implements
// invoice.DocumentRenderer.
type Document struct {
	client  *Client
	seller  invoice.SellerProfile
	tpl     *template.Template
	printer *message.Printer
}

// NewDocument parses the invoice template at construction time.
func NewDocument(client *Client, seller invoice.SellerProfile) (*Document, error) {
	printer := message.NewPrinter(language.MustParse("en-IN"))
	funcMap := template.FuncMap{
		"inr": func(d decimal.Decimal) string {
			return printer.Sprintf("%.2f", d.InexactFloat64())
		},
		"add1": func(i int) int { return i + 1 },
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
	}
	tpl, err := template.New("invoice").Funcs(funcMap).Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("pdf: parse template: %w", err)
	}
	return &Document{client: client, seller: seller, tpl: tpl, printer: printer}, nil
}

// BuildHTML renders the invoice HTML without converting it to PDF.
func (d *Document) BuildHTML(inv *invoice.Invoice) (string, error) {
	taxLabel := "IGST"
	if inv.IntraState {
		taxLabel = "CGST + SGST"
	}
	var buf bytes.Buffer
	err := d.tpl.Execute(&buf, map[string]any{
		"Seller":   d.seller,
		"Invoice":  inv,
		"TaxLabel": taxLabel,
	})
	if err != nil {
		return "", fmt.Errorf("pdf: execute template: %w", err)
	}
	return buf.String(), nil
}

// RenderInvoice produces the PDF bytes for an invoice.
func (d *Document) RenderInvoice(ctx context.Context, inv *invoice.Invoice) ([]byte, error) {
	html, err := d.BuildHTML(inv)
	if err != nil {
		return nil, err
	}
	return d.client.RenderHTML(ctx, html)
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Invoice.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; margin: 40px; }
h1 { font-size: 20px; margin-bottom: 4px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; }
th { background: #f4f4f4; }
td.num, th.num { text-align: right; }
.totals td { border: none; }
.parties { display: flex; justify-content: space-between; margin-top: 24px; }
.cancelled { color: #b00020; font-weight: bold; }
</style>
</head>
<body>
<h1>Tax Invoice</h1>
<div>
  <strong>{{.Invoice.Number}}</strong>
  {{if eq .Invoice.Status "CANCELLED"}}<span class="cancelled">CANCELLED</span>{{end}}<br>
  Issue date: {{formatDate .Invoice.IssueDate}}<br>
  Due date: {{formatDate .Invoice.DueDate}}
</div>

<div class="parties">
  <div>
    <strong>From</strong><br>
    {{.Seller.Name}}<br>
    {{.Seller.Address}}<br>
    GSTIN: {{.Seller.GSTIN}}
  </div>
  <div>
    <strong>Bill To</strong><br>
    {{.Invoice.Customer.Name}}<br>
    {{.Invoice.Customer.Address}}<br>
    {{if .Invoice.Customer.GSTIN}}GSTIN: {{.Invoice.Customer.GSTIN}}{{else}}Unregistered{{end}}
  </div>
</div>

<table>
  <tr>
    <th>#</th><th>Description</th><th>HSN</th>
    <th class="num">Qty</th><th class="num">Unit Price</th>
    <th class="num">Taxable</th><th class="num">Rate</th>
    <th class="num">{{.TaxLabel}}</th><th class="num">Total</th>
  </tr>
  {{range $i, $item := .Invoice.Items}}
  <tr>
    <td>{{add1 $i}}</td>
    <td>{{$item.Description}}</td>
    <td>{{$item.HSNCode}}</td>
    <td class="num">{{$item.Quantity}}</td>
    <td class="num">{{inr $item.UnitPrice}}</td>
    <td class="num">{{inr $item.Tax.TaxableValue}}</td>
    <td class="num">{{$item.Rate}}%</td>
    <td class="num">{{inr $item.Tax.TaxAmount}}</td>
    <td class="num">{{inr $item.Tax.LineTotal}}</td>
  </tr>
  {{end}}
</table>

<table class="totals">
  <tr><td></td><td class="num">Subtotal</td><td class="num">{{inr .Invoice.Subtotal}}</td></tr>
  {{if .Invoice.IntraState}}
  <tr><td></td><td class="num">CGST</td><td class="num">{{inr .Invoice.TotalCGST}}</td></tr>
  <tr><td></td><td class="num">SGST</td><td class="num">{{inr .Invoice.TotalSGST}}</td></tr>
  {{else}}
  <tr><td></td><td class="num">IGST</td><td class="num">{{inr .Invoice.TotalIGST}}</td></tr>
  {{end}}
  <tr><td></td><td class="num"><strong>Grand Total</strong></td><td class="num"><strong>{{inr .Invoice.GrandTotal}}</strong></td></tr>
</table>

{{if .Invoice.Notes}}<p>{{.Invoice.Notes}}</p>{{end}}
<p>Payment status: {{.Invoice.PaymentStatus}}</p>
</body>
</html>`
