package jobs

import (
	"context"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/mailer"
)

// Notifier queues invoice lifecycle mail for asynchronous delivery by
// the worker's mail handler.
type Notifier struct {
	client *Client
	seller string
}

// NewNotifier builds a Notifier enqueueing through the given client.
func NewNotifier(client *Client, sellerName string) *Notifier {
	return &Notifier{client: client, seller: sellerName}
}

// NotifyIssued queues the customer's copy of a freshly issued invoice.
// Invoices without a customer email are skipped.
func (n *Notifier) NotifyIssued(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil || inv.Customer.Email == "" {
		return nil
	}
	_, err := n.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      inv.Customer.Email,
		Subject: mailer.IssuedSubject(inv.Number),
		Body:    mailer.IssuedBody(n.seller, inv),
	})
	return err
}
