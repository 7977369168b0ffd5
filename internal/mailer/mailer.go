// Package mailer sends transactional mail over SMTP: payment reminders
// for overdue invoices and copies of freshly issued ones.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
)

// Sender delivers a single message.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTP builds a mailer for the given relay. username may be empty
// for unauthenticated relays.
func NewSMTP(host string, port int, from, username, password string) *SMTPMailer {
	m := &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers one plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

// ReminderSubject is the subject line for an overdue payment reminder.
func ReminderSubject(number string) string {
	return fmt.Sprintf("Payment reminder for invoice %s", number)
}

// ReminderBody composes the overdue reminder text.
func ReminderBody(sellerName string, inv *invoice.Invoice, outstanding decimal.Decimal, asOf time.Time) string {
	daysOverdue := int(asOf.Sub(inv.DueDate).Hours() / 24)
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", inv.Customer.Name)
	fmt.Fprintf(&b, "This is a reminder that invoice %s dated %s is overdue by %d day(s).\n\n",
		inv.Number, inv.IssueDate.Format("02 Jan 2006"), daysOverdue)
	fmt.Fprintf(&b, "Outstanding amount: INR %s\n", outstanding.StringFixed(2))
	fmt.Fprintf(&b, "Due date: %s\n\n", inv.DueDate.Format("02 Jan 2006"))
	fmt.Fprintf(&b, "Please arrange payment at the earliest.\n\nRegards,\n%s\n", sellerName)
	return b.String()
}

// IssuedSubject is the subject line for a new invoice notification.
func IssuedSubject(number string) string {
	return fmt.Sprintf("Invoice %s from your supplier", number)
}

// IssuedBody composes the new invoice notification text.
func IssuedBody(sellerName string, inv *invoice.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", inv.Customer.Name)
	fmt.Fprintf(&b, "Invoice %s dated %s has been issued for INR %s.\n",
		inv.Number, inv.IssueDate.Format("02 Jan 2006"), inv.GrandTotal.StringFixed(2))
	fmt.Fprintf(&b, "Payment is due by %s.\n\nRegards,\n%s\n", inv.DueDate.Format("02 Jan 2006"), sellerName)
	return b.String()
}

// Nop discards all mail. Used when no relay is configured.
type Nop struct{}

func (Nop) Send(string, string, string) error { return nil }
