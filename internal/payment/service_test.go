package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// memLedger is an in-memory RepositoryPort. Appends run under a single
// lock, matching the per-invoice row lock the Postgres repository takes.
type memLedger struct {
	mu       sync.Mutex
	invoices map[int64]*invoice.Invoice
	events   map[int64][]Event
	nextID   int64
}

func newMemLedger(invoices ...*invoice.Invoice) *memLedger {
	m := &memLedger{
		invoices: make(map[int64]*invoice.Invoice),
		events:   make(map[int64][]Event),
	}
	for _, inv := range invoices {
		m.invoices[inv.ID] = inv
	}
	return m
}

func (m *memLedger) AppendEvent(_ context.Context, input AppendInput) (*invoice.Invoice, *Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invoices[input.InvoiceID]
	if !ok {
		return nil, nil, invoice.ErrNotFound
	}
	history := m.events[input.InvoiceID]
	if err := Check(inv, history, input.Amount); err != nil {
		return nil, nil, err
	}

	m.nextID++
	event := Event{
		ID:            m.nextID,
		InvoiceID:     input.InvoiceID,
		Amount:        input.Amount,
		Method:        input.Method,
		TransactionID: input.TransactionID,
		Note:          input.Note,
		RecordedAt:    time.Now(),
	}
	m.events[input.InvoiceID] = append(history, event)
	inv.PaymentStatus = Derive(inv.GrandTotal, m.events[input.InvoiceID])

	cp := *inv
	return &cp, &event, nil
}

func (m *memLedger) ListEvents(_ context.Context, invoiceID int64) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events[invoiceID]...), nil
}

func (m *memLedger) GetInvoice(_ context.Context, invoiceID int64) (*invoice.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return nil, invoice.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func issuedInvoice(id int64, grandTotal string) *invoice.Invoice {
	return &invoice.Invoice{
		ID:            id,
		Number:        "INV-2025-26-00001",
		GrandTotal:    dec(grandTotal),
		Status:        invoice.StatusIssued,
		PaymentStatus: invoice.PaymentPending,
	}
}

func record(t *testing.T, svc *Service, id int64, amount string) *invoice.Invoice {
	t.Helper()
	inv, _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: id,
		Amount:    dec(amount),
		Method:    "upi",
	})
	require.NoError(t, err)
	return inv
}

func TestLedgerProgression(t *testing.T) {
	ledger := newMemLedger(issuedInvoice(1, "1180.00"))
	svc := NewService(ledger)
	ctx := context.Background()

	balance, err := svc.OutstandingBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("1180.00")))

	inv := record(t, svc, 1, "700.00")
	require.Equal(t, invoice.PaymentPartial, inv.PaymentStatus)

	balance, err = svc.OutstandingBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("480.00")))

	inv = record(t, svc, 1, "480.00")
	require.Equal(t, invoice.PaymentPaid, inv.PaymentStatus)

	balance, err = svc.OutstandingBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	// Fully settled: even a paisa more is an overpayment.
	_, _, err = svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: 1, Amount: dec("0.01"), Method: "cash"})
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestOverpaymentRejectedEntirely(t *testing.T) {
	ledger := newMemLedger(issuedInvoice(1, "1180.00"))
	svc := NewService(ledger)

	_, _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1, Amount: dec("1180.01"), Method: "card",
	})
	require.ErrorIs(t, err, ErrOverpayment)

	// The rejected event left no trace.
	events, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, events)

	balance, err := svc.OutstandingBalance(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("1180.00")))
}

func TestExactSettlementAllowed(t *testing.T) {
	ledger := newMemLedger(issuedInvoice(1, "1180.00"))
	svc := NewService(ledger)

	inv := record(t, svc, 1, "1180.00")
	require.Equal(t, invoice.PaymentPaid, inv.PaymentStatus)
}

func TestInvalidAmounts(t *testing.T) {
	ledger := newMemLedger(issuedInvoice(1, "1180.00"))
	svc := NewService(ledger)
	ctx := context.Background()

	_, _, err := svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: 1, Amount: decimal.Zero, Method: "upi"})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: 1, Amount: dec("-10"), Method: "upi"})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: 1, Amount: dec("10"), Method: "barter"})
	require.ErrorIs(t, err, ErrInvalidMethod)

	_, _, err = svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: 404, Amount: dec("10"), Method: "upi"})
	require.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestCancelledInvoiceAcceptsNoPayments(t *testing.T) {
	inv := issuedInvoice(1, "1180.00")
	inv.Status = invoice.StatusCancelled
	svc := NewService(newMemLedger(inv))

	_, _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: 1, Amount: dec("100"), Method: "upi",
	})
	require.ErrorIs(t, err, ErrInvoiceCancelled)
}

func TestDeriveIsAFoldOverHistory(t *testing.T) {
	total := dec("1180.00")

	require.Equal(t, invoice.PaymentPending, Derive(total, nil))

	events := []Event{{Amount: dec("700.00")}}
	require.Equal(t, invoice.PaymentPartial, Derive(total, events))

	events = append(events, Event{Amount: dec("480.00")})
	require.Equal(t, invoice.PaymentPaid, Derive(total, events))

	// Replaying the same history always reproduces the same state.
	require.Equal(t, Derive(total, events), Derive(total, append([]Event(nil), events...)))
}

func TestStatusNeverRegresses(t *testing.T) {
	ledger := newMemLedger(issuedInvoice(1, "1000.00"))
	svc := NewService(ledger)

	statuses := []invoice.PaymentStatus{}
	for _, amount := range []string{"100.00", "400.00", "500.00"} {
		inv := record(t, svc, 1, amount)
		statuses = append(statuses, inv.PaymentStatus)
	}
	require.Equal(t, []invoice.PaymentStatus{
		invoice.PaymentPartial,
		invoice.PaymentPartial,
		invoice.PaymentPaid,
	}, statuses)
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	ledger := newMemLedger(issuedInvoice(1, "1000.00"))
	svc := NewService(ledger)
	ctx := context.Background()

	// 15 workers race to pay 100 each against a 1000 total; exactly 10
	// can succeed.
	const workers = 15
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.RecordPayment(ctx, RecordPaymentInput{
				InvoiceID: 1, Amount: dec("100.00"), Method: "bank_transfer",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrOverpayment)
		}
	}
	require.Equal(t, 10, succeeded)

	events, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.True(t, TotalPaid(events).Equal(dec("1000.00")))
}

func TestParseMethod(t *testing.T) {
	for _, m := range []string{"cash", "upi", "card", "bank_transfer", "cheque", "other"} {
		got, err := ParseMethod(m)
		require.NoError(t, err)
		require.Equal(t, Method(m), got)
	}
	_, err := ParseMethod("crypto")
	require.ErrorIs(t, err, ErrInvalidMethod)
}
