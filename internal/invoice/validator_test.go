package invoice

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator("")
	require.NoError(t, err)
	v.WithNow(func() time.Time {
		return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	})
	return v
}

func validCustomer() RawCustomer {
	return RawCustomer{
		Name:    "Acme Traders",
		Address: "12 MG Road, Bengaluru",
		Phone:   "9876543210",
		Email:   "billing@acme.example",
		GSTIN:   "29ABCDE1234F1Z5",
	}
}

func validItems() []RawLineItem {
	return []RawLineItem{
		{Description: "Consulting", HSNCode: "9983", Quantity: 2, UnitPrice: "500.00", GSTRate: 18},
	}
}

func fieldReasons(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Field] = f.Reason
	}
	return out
}

func TestValidateAcceptsGoodInput(t *testing.T) {
	v := newTestValidator(t)

	cust, items, err := v.Validate(validCustomer(), validItems(), time.Time{})
	require.NoError(t, err)
	require.Equal(t, "Acme Traders", cust.Name)
	require.Equal(t, "29", cust.StateCode())
	require.Len(t, items, 1)
	require.Equal(t, Rate18, items[0].Rate)
	require.True(t, items[0].UnitPrice.Equal(dec("500.00")))
}

func TestValidateCollectsAllViolations(t *testing.T) {
	v := newTestValidator(t)

	cust := RawCustomer{
		Name:  "A",
		Phone: "12345",
		Email: "not-an-email",
		GSTIN: "22AAAAA0000A1Z", // 14 chars, one short
	}
	items := []RawLineItem{
		{Description: "", Quantity: 0, UnitPrice: "-5", GSTRate: 7},
	}
	future := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	_, _, err := v.Validate(cust, items, future)
	require.Error(t, err)

	fields := fieldReasons(t, err)
	require.Contains(t, fields, "customer.name")
	require.Contains(t, fields, "customer.address")
	require.Contains(t, fields, "customer.phone")
	require.Contains(t, fields, "customer.email")
	require.Contains(t, fields, "customer.gstin")
	require.Contains(t, fields, "items[0].description")
	require.Contains(t, fields, "items[0].quantity")
	require.Contains(t, fields, "items[0].unit_price")
	require.Contains(t, fields, "items[0].gst_rate")
	require.Contains(t, fields, "issue_date")
	require.Len(t, fields, 10)
}

func TestValidateGSTINLength(t *testing.T) {
	v := newTestValidator(t)

	cust := validCustomer()
	cust.GSTIN = "22AAAAA0000A1Z" // truncated
	_, _, err := v.Validate(cust, validItems(), time.Time{})
	fields := fieldReasons(t, err)
	require.Equal(t, "must be a valid 15-character GSTIN", fields["customer.gstin"])

	// Empty GSTIN is an unregistered customer, not an error.
	cust.GSTIN = ""
	_, _, err = v.Validate(cust, validItems(), time.Time{})
	require.NoError(t, err)
}

func TestValidatePhoneNormalization(t *testing.T) {
	v := newTestValidator(t)

	for _, raw := range []string{"9876543210", "+919876543210", "919876543210", "09876543210", "98765 43210"} {
		cust := validCustomer()
		cust.Phone = raw
		got, _, err := v.Validate(cust, validItems(), time.Time{})
		require.NoError(t, err, "phone %q", raw)
		require.Equal(t, "9876543210", got.Phone)
	}

	cust := validCustomer()
	cust.Phone = "5876543210" // starts with 5
	_, _, err := v.Validate(cust, validItems(), time.Time{})
	fields := fieldReasons(t, err)
	require.Contains(t, fields, "customer.phone")
}

func TestValidateCustomPhonePattern(t *testing.T) {
	v, err := NewValidator(`^\d{7}$`)
	require.NoError(t, err)

	cust := validCustomer()
	cust.Phone = "1234567"
	_, _, verr := v.Validate(cust, validItems(), time.Time{})
	require.NoError(t, verr)

	_, err = NewValidator(`([`)
	require.Error(t, err)
}

func TestValidateUnitPrice(t *testing.T) {
	v := newTestValidator(t)

	cases := map[string]string{
		"":            "must not be empty",
		"abc":         "must be a number",
		"-1":          "must not be negative",
		"10000000.01": "must be at most 1,00,00,000",
		"10.999":      "must have at most two decimal places",
	}
	for raw, want := range cases {
		items := validItems()
		items[0].UnitPrice = raw
		_, _, err := v.Validate(validCustomer(), items, time.Time{})
		fields := fieldReasons(t, err)
		require.Equal(t, want, fields["items[0].unit_price"], "price %q", raw)
	}

	// Exactly one crore is allowed.
	items := validItems()
	items[0].UnitPrice = "10000000.00"
	_, _, err := v.Validate(validCustomer(), items, time.Time{})
	require.NoError(t, err)
}

func TestValidateEmptyItems(t *testing.T) {
	v := newTestValidator(t)

	_, _, err := v.Validate(validCustomer(), nil, time.Time{})
	fields := fieldReasons(t, err)
	require.Equal(t, "invoice must have at least one line item", fields["items"])
}

func TestValidateIssueDateBounds(t *testing.T) {
	v := newTestValidator(t)
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := v.Validate(validCustomer(), validItems(), now.Add(time.Hour))
	fields := fieldReasons(t, err)
	require.Equal(t, "must not be in the future", fields["issue_date"])

	_, _, err = v.Validate(validCustomer(), validItems(), now.AddDate(-4, 0, 0))
	fields = fieldReasons(t, err)
	require.Equal(t, "must not be more than 3 years old", fields["issue_date"])

	_, _, err = v.Validate(validCustomer(), validItems(), now.AddDate(0, -1, 0))
	require.NoError(t, err)
}

func TestValidateLongFields(t *testing.T) {
	v := newTestValidator(t)

	cust := validCustomer()
	cust.Name = strings.Repeat("x", 101)
	items := validItems()
	items[0].Description = strings.Repeat("y", 201)
	items[0].Quantity = 100_001

	_, _, err := v.Validate(cust, items, time.Time{})
	fields := fieldReasons(t, err)
	require.Equal(t, "must be at most 100 characters", fields["customer.name"])
	require.Equal(t, "must be at most 200 characters", fields["items[0].description"])
	require.Equal(t, "must be at most 100000", fields["items[0].quantity"])
}

func TestValidationErrorMessage(t *testing.T) {
	v := newTestValidator(t)

	_, _, err := v.Validate(RawCustomer{}, nil, time.Time{})
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Error(), "customer.name")
}
