package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/payment"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_abc","type":"payment.completed"}`)

	signature := payment.SignPayload(secret, body)
	assert.True(t, payment.VerifySignature(secret, body, signature))

	// Tampered body
	assert.False(t, payment.VerifySignature(secret, []byte(`{"id":"evt_xyz"}`), signature))

	// Wrong secret
	assert.False(t, payment.VerifySignature("whsec_other", body, signature))

	// Garbage signature
	assert.False(t, payment.VerifySignature(secret, body, "not-a-signature"))
	assert.False(t, payment.VerifySignature(secret, body, ""))
}

func TestCheckoutTokenRoundTrip(t *testing.T) {
	token := payment.CheckoutToken{
		IntentID:  "01J0000000000000000000TEST",
		UserID:    42,
		PackageID: 2,
		Tokens:    5000,
		Price:     19.99,
		Timestamp: 1727000000000,
	}

	encoded, err := payment.EncodeCheckoutToken(token)
	require.NoError(t, err)

	decoded, err := payment.DecodeCheckoutToken(encoded)
	require.NoError(t, err)
	assert.Equal(t, token, *decoded)
}

func TestDecodeCheckoutToken_Invalid(t *testing.T) {
	_, err := payment.DecodeCheckoutToken("%%%not-base64%%%")
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Valid base64, invalid JSON
	_, err = payment.DecodeCheckoutToken("bm90IGpzb24=")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPackageCatalog(t *testing.T) {
	all := payment.Packages()
	require.Len(t, all, 4)

	pkg, ok := payment.PackageByID(2)
	require.True(t, ok)
	assert.Equal(t, "Creator Pack", pkg.Name)
	assert.Equal(t, int64(5000), pkg.Tokens)
	assert.True(t, pkg.Popular)

	_, ok = payment.PackageByID(99)
	assert.False(t, ok)

	// Callers get a copy, not the catalog itself
	all[0].Tokens = 0
	fresh := payment.Packages()
	assert.Equal(t, int64(1000), fresh[0].Tokens)
}
