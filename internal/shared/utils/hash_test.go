package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherAlgorithms(t *testing.T) {
	data := []byte("transfer 0.5 BTC to wallet-9")

	sha := NewHasher(SHA256).Hash(data)
	blake := NewHasher(BLAKE2B).Hash(data)

	assert.Len(t, sha, 64)
	assert.Len(t, blake, 64)
	assert.NotEqual(t, sha, blake, "algorithms should produce different digests")
}

func TestHashDeterminism(t *testing.T) {
	h := DefaultHasher()

	assert.Equal(t, h.HashString("abc"), h.HashString("abc"))
	assert.NotEqual(t, h.HashString("abc"), h.HashString("abd"))
}

func TestHashFieldsOrderIndependent(t *testing.T) {
	h := DefaultHasher()

	a := h.HashFields("recipient:alice", "currency:BTC")
	b := h.HashFields("currency:BTC", "recipient:alice")

	assert.Equal(t, a, b, "field order should not change the digest")
}

func TestHashJSON(t *testing.T) {
	h := DefaultHasher()

	payload := map[string]interface{}{
		"recipient": "wallet-9",
		"amount":    42.5,
		"currency":  "ETH",
	}

	d1, err := h.HashJSON(payload)
	require.NoError(t, err)

	d2, err := h.HashJSON(payload)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

func TestPaymentFingerprint(t *testing.T) {
	pf := NewPaymentFingerprint(nil)

	digest := pf.Generate("wallet-9", "BTC", 0.5)
	assert.Len(t, digest, 64)

	assert.True(t, pf.Verify(digest, "wallet-9", "BTC", 0.5))
	assert.False(t, pf.Verify(digest, "wallet-9", "BTC", 0.6))
	assert.False(t, pf.Verify(digest, "wallet-8", "BTC", 0.5))
}

func TestShortDigest(t *testing.T) {
	pf := NewPaymentFingerprint(nil)

	full := strings.Repeat("f", 64)
	assert.Equal(t, "ffffffff", pf.ShortDigest(full))
	assert.Equal(t, "abc", pf.ShortDigest("abc"))
}
