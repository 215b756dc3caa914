package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256  HashAlgorithm = "sha256"
	BLAKE2B HashAlgorithm = "blake2b"
	// Extensible: add more algorithms here
	// SHA512 HashAlgorithm = "sha512"
)

// Hasher provides extensible hashing functionality
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(BLAKE2B)
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	case BLAKE2B:
		hash := blake2b.Sum256(data)
		return hex.EncodeToString(hash[:])
	// Extensible: add more cases here
	default:
		hash := blake2b.Sum256(data)
		return hex.EncodeToString(hash[:])
	}
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashJSON computes a hash of a JSON-serializable object
// The hash is deterministic (same object = same hash)
func (h *Hasher) HashJSON(v interface{}) (string, error) {
	// Marshal to JSON with sorted keys for deterministic output
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return h.Hash(data), nil
}

// HashFields computes a hash from multiple fields
// Fields are concatenated with a delimiter for consistent hashing
func (h *Hasher) HashFields(fields ...string) string {
	// Sort fields for deterministic ordering
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	combined := strings.Join(sorted, "|")
	return h.HashString(combined)
}

// PaymentFingerprint generates deterministic digests for payment payloads.
// Audit records carry these so duplicate submissions are detectable and
// stored payloads are verifiable after the fact.
type PaymentFingerprint struct {
	hasher *Hasher
}

// NewPaymentFingerprint creates a payment fingerprint generator
func NewPaymentFingerprint(hasher *Hasher) *PaymentFingerprint {
	if hasher == nil {
		hasher = DefaultHasher()
	}
	return &PaymentFingerprint{hasher: hasher}
}

// Generate computes a deterministic digest from the payment identity fields
func (pf *PaymentFingerprint) Generate(recipient, currency string, amount float64) string {
	return pf.hasher.HashFields(
		fmt.Sprintf("recipient:%s", recipient),
		fmt.Sprintf("currency:%s", currency),
		fmt.Sprintf("amount:%.8f", amount),
	)
}

// DigestPayload computes the digest of a full payload map
func (pf *PaymentFingerprint) DigestPayload(payload map[string]interface{}) (string, error) {
	return pf.hasher.HashJSON(payload)
}

// ShortDigest returns an 8-character digest for display
func (pf *PaymentFingerprint) ShortDigest(fullDigest string) string {
	if len(fullDigest) < 8 {
		return fullDigest
	}
	return fullDigest[:8]
}

// Verify checks if a digest matches the expected payment fields
func (pf *PaymentFingerprint) Verify(digest, recipient, currency string, amount float64) bool {
	return digest == pf.Generate(recipient, currency, amount)
}
