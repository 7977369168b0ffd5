package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setSellerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SELLER_NAME", "Bunny Enterprises")
	t.Setenv("SELLER_GSTIN", "29AAAAA0000A1Z5")
}

func TestLoadConfigDefaults(t *testing.T) {
	setSellerEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "29AAAAA0000A1Z5", cfg.SellerGSTIN)
	require.Equal(t, "INV", cfg.InvoicePrefix)
	require.Equal(t, 5, cfg.InvoicePad)
	require.Equal(t, 30, cfg.DueDays)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsMalformedSellerGSTIN(t *testing.T) {
	// The seller's state code drives intra/inter-state tax treatment,
	// so a malformed GSTIN must fail startup, not misclassify invoices.
	for _, gstin := range []string{
		"29AAAAA0000A1Z",   // 14 chars
		"XXAAAAA0000A1Z5",  // non-numeric state code
		"29aaaaa0000a1z5",  // lower case
		"29AAAAA0000A1X5",  // missing Z marker
	} {
		setSellerEnv(t)
		t.Setenv("SELLER_GSTIN", gstin)
		_, err := LoadConfig()
		require.Error(t, err, "gstin %q", gstin)
	}
}

func TestLoadConfigRejectsBadPadWidth(t *testing.T) {
	setSellerEnv(t)
	t.Setenv("INVOICE_PAD", "0")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsBadPhonePattern(t *testing.T) {
	setSellerEnv(t)
	t.Setenv("PHONE_PATTERN", "([")
	_, err := LoadConfig()
	require.Error(t, err)
}
