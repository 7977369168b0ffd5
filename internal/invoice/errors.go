package invoice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedRate indicates a tax rate outside the notified GST
	// slabs reached the calculator. The validator rejects such input, so
	// hitting this is a bug in the caller, not a user error.
	ErrUnsupportedRate = errors.New("invoice: unsupported GST rate")
	// ErrNumberingConflict indicates the reserved invoice number lost a
	// race against a concurrent creation. Callers retry with a fresh
	// reservation; the failed number is never reused.
	ErrNumberingConflict = errors.New("invoice: number already issued")
	// ErrNotFound indicates the invoice does not exist.
	ErrNotFound = errors.New("invoice: not found")
	// ErrNotCancellable indicates the invoice has recorded payments or is
	// already cancelled.
	ErrNotCancellable = errors.New("invoice: only unpaid issued invoices can be cancelled")
	// ErrTotalsMismatch indicates a stored grand total that no longer
	// matches its re-derivation from the line breakdowns.
	ErrTotalsMismatch = errors.New("invoice: stored totals do not match derivation")
)

// FieldError is a single validation violation.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError enumerates every violated field found in one pass, so
// a caller can surface all problems at once instead of fixing them one
// round-trip at a time.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invoice: validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "invoice: validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) addf(field, format string, args ...any) {
	e.add(field, fmt.Sprintf(format, args...))
}

// orNil returns nil when no violations were collected, so callers can
// return the result directly.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
