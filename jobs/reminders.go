package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/mailer"
)

// OverdueLister provides the invoices past due that still owe money.
type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]invoice.Invoice, error)
}

// BalanceGetter resolves the open balance of one invoice.
type BalanceGetter interface {
	OutstandingBalance(ctx context.Context, invoiceID int64) (decimal.Decimal, error)
}

// ReminderJob mails payment reminders for overdue invoices.
type ReminderJob struct {
	logger     *slog.Logger
	invoices   OverdueLister
	balances   BalanceGetter
	sender     mailer.Sender
	sellerName string
	now        func() time.Time
}

// NewReminderJob builds the reminder sweep.
func NewReminderJob(logger *slog.Logger, invoices OverdueLister, balances BalanceGetter, sender mailer.Sender, sellerName string) *ReminderJob {
	return &ReminderJob{
		logger:     logger,
		invoices:   invoices,
		balances:   balances,
		sender:     sender,
		sellerName: sellerName,
		now:        time.Now,
	}
}

// WithNow overrides the job clock for testing.
func (j *ReminderJob) WithNow(fn func() time.Time) {
	if fn != nil {
		j.now = fn
	}
}

// Handle processes TaskTypePaymentReminder tasks. A failing invoice is
// logged and skipped so one bad address does not stall the sweep.
func (j *ReminderJob) Handle(ctx context.Context, _ *asynq.Task) error {
	asOf := j.now()
	overdue, err := j.invoices.ListOverdue(ctx, asOf)
	if err != nil {
		return err
	}

	sent := 0
	for i := range overdue {
		inv := &overdue[i]
		if inv.Customer.Email == "" {
			continue
		}
		outstanding, err := j.balances.OutstandingBalance(ctx, inv.ID)
		if err != nil {
			j.logger.Warn("reminder balance lookup", slog.String("number", inv.Number), slog.Any("error", err))
			continue
		}
		if !outstanding.IsPositive() {
			continue
		}
		body := mailer.ReminderBody(j.sellerName, inv, outstanding, asOf)
		if err := j.sender.Send(inv.Customer.Email, mailer.ReminderSubject(inv.Number), body); err != nil {
			j.logger.Warn("reminder send", slog.String("number", inv.Number), slog.Any("error", err))
			continue
		}
		sent++
	}
	j.logger.Info("reminder sweep complete", slog.Int("overdue", len(overdue)), slog.Int("sent", sent))
	return nil
}
