package shared

import (
	"errors"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/payment"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("not found")

// UserSafeMessage maps engine errors to messages safe to surface to API
// consumers. Unknown errors collapse to a generic message so internal
// detail never leaks.
func UserSafeMessage(err error) string {
	var verr *invoice.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, invoice.ErrNumberingConflict):
		return "invoice number assignment conflicted, please retry"
	case errors.Is(err, invoice.ErrNotFound), errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, invoice.ErrNotCancellable):
		return "only unpaid issued invoices can be cancelled"
	case errors.Is(err, payment.ErrInvalidAmount):
		return "payment amount must be positive"
	case errors.Is(err, payment.ErrInvalidMethod):
		return "unknown payment method"
	case errors.Is(err, payment.ErrOverpayment):
		return "payment exceeds the outstanding balance"
	case errors.Is(err, payment.ErrInvoiceCancelled):
		return "invoice is cancelled"
	default:
		return "something went wrong, please try again"
	}
}
