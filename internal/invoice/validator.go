package invoice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawCustomer is the loosely-typed customer input as received from the
// API layer, checked field by field before anything is computed.
type RawCustomer struct {
	Name    string
	Address string
	Phone   string
	Email   string
	GSTIN   string
}

// RawLineItem is the loosely-typed line item input. The unit price
// arrives as text and is only parsed into a decimal once it validates.
type RawLineItem struct {
	Description string
	HSNCode     string
	Quantity    int64
	UnitPrice   string
	GSTRate     int
}

const (
	// DefaultPhonePattern accepts Indian mobile numbers: ten digits
	// starting 6-9, after any +91/91/0 prefix is stripped.
	DefaultPhonePattern = `^[6-9]\d{9}$`

	maxNameLen        = 100
	maxDescriptionLen = 200
	maxQuantity       = 100_000
	maxInvoiceAgeDays = 3 * 365
)

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// 1 crore cap on unit price, from the upstream business rule.
	maxUnitPrice = decimal.NewFromInt(10_000_000)
)

// ValidGSTIN reports whether s is a well-formed 15-character GSTIN.
// The seller's own GSTIN is held to the same standard as a customer's:
// its state code feeds intra- versus inter-state determination.
func ValidGSTIN(s string) bool {
	return gstinPattern.MatchString(s)
}

// Validator checks raw invoice input. It is pure: no I/O, no mutation
// of its arguments.
type Validator struct {
	phone *regexp.Regexp
	now   func() time.Time
}

// NewValidator builds a Validator. phonePattern overrides the national
// phone format; pass "" for the default.
func NewValidator(phonePattern string) (*Validator, error) {
	if phonePattern == "" {
		phonePattern = DefaultPhonePattern
	}
	re, err := regexp.Compile(phonePattern)
	if err != nil {
		return nil, fmt.Errorf("invoice: compile phone pattern: %w", err)
	}
	return &Validator{phone: re, now: time.Now}, nil
}

// WithNow overrides the validator clock for testing.
func (v *Validator) WithNow(fn func() time.Time) {
	if fn != nil {
		v.now = fn
	}
}

// Validate checks the customer, every line item and the issue date in a
// single pass, collecting all violations into one ValidationError. On
// success it returns the strongly-typed entities; the raw input is
// never used past this point. issuedAt may be zero for "today".
func (v *Validator) Validate(raw RawCustomer, items []RawLineItem, issuedAt time.Time) (Customer, []LineItem, error) {
	verr := &ValidationError{}

	cust := v.validateCustomer(raw, verr)
	out := v.validateItems(items, verr)
	v.validateIssueDate(issuedAt, verr)

	if err := verr.orNil(); err != nil {
		return Customer{}, nil, err
	}
	return cust, out, nil
}

func (v *Validator) validateCustomer(raw RawCustomer, verr *ValidationError) Customer {
	name := strings.TrimSpace(raw.Name)
	switch {
	case name == "":
		verr.add("customer.name", "must not be empty")
	case len(name) < 2:
		verr.add("customer.name", "must be at least 2 characters")
	case len(name) > maxNameLen:
		verr.addf("customer.name", "must be at most %d characters", maxNameLen)
	}

	address := strings.TrimSpace(raw.Address)
	if address == "" {
		verr.add("customer.address", "must not be empty")
	}

	phone := normalizePhone(raw.Phone)
	if !v.phone.MatchString(phone) {
		verr.add("customer.phone", "must be a valid 10-digit mobile number")
	}

	email := strings.TrimSpace(raw.Email)
	if !emailPattern.MatchString(email) {
		verr.add("customer.email", "must be a valid email address")
	}

	// GSTIN is optional, but a malformed one is rejected outright rather
	// than normalized: the state code feeds tax determination.
	gstin := raw.GSTIN
	if gstin != "" && !gstinPattern.MatchString(gstin) {
		verr.add("customer.gstin", "must be a valid 15-character GSTIN")
	}

	return Customer{
		Name:    name,
		Address: address,
		Phone:   phone,
		Email:   email,
		GSTIN:   gstin,
	}
}

func (v *Validator) validateItems(items []RawLineItem, verr *ValidationError) []LineItem {
	if len(items) == 0 {
		verr.add("items", "invoice must have at least one line item")
		return nil
	}

	out := make([]LineItem, 0, len(items))
	for i, raw := range items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		desc := strings.TrimSpace(raw.Description)
		switch {
		case desc == "":
			verr.add(field("description"), "must not be empty")
		case len(desc) < 2:
			verr.add(field("description"), "must be at least 2 characters")
		case len(desc) > maxDescriptionLen:
			verr.addf(field("description"), "must be at most %d characters", maxDescriptionLen)
		}

		if raw.Quantity < 1 {
			verr.add(field("quantity"), "must be at least 1")
		} else if raw.Quantity > maxQuantity {
			verr.addf(field("quantity"), "must be at most %d", maxQuantity)
		}

		price, perr := parseUnitPrice(raw.UnitPrice)
		if perr != "" {
			verr.add(field("unit_price"), perr)
		}

		rate, rerr := ParseGSTRate(raw.GSTRate)
		if rerr != nil {
			verr.add(field("gst_rate"), "must be one of 0, 5, 12, 18, 28")
		}

		out = append(out, LineItem{
			Description: desc,
			HSNCode:     strings.TrimSpace(raw.HSNCode),
			Quantity:    raw.Quantity,
			UnitPrice:   price,
			Rate:        rate,
		})
	}
	return out
}

func (v *Validator) validateIssueDate(issuedAt time.Time, verr *ValidationError) {
	if issuedAt.IsZero() {
		return
	}
	now := v.now()
	if issuedAt.After(now) {
		verr.add("issue_date", "must not be in the future")
		return
	}
	if now.Sub(issuedAt) > maxInvoiceAgeDays*24*time.Hour {
		verr.add("issue_date", "must not be more than 3 years old")
	}
}

func parseUnitPrice(raw string) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, "must not be empty"
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, "must be a number"
	}
	switch {
	case price.IsNegative():
		return decimal.Zero, "must not be negative"
	case price.GreaterThan(maxUnitPrice):
		return decimal.Zero, "must be at most 1,00,00,000"
	case price.Exponent() < -2:
		return decimal.Zero, "must have at most two decimal places"
	}
	return price, ""
}

// normalizePhone strips spaces, dashes and a leading +91/91/0 country
// prefix. The digits themselves are never altered.
func normalizePhone(phone string) string {
	phone = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(phone, "+91") && len(phone) == 13:
		return phone[3:]
	case strings.HasPrefix(phone, "91") && len(phone) == 12:
		return phone[2:]
	case strings.HasPrefix(phone, "0") && len(phone) == 11:
		return phone[1:]
	}
	return phone
}
