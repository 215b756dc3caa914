// Package id provides centralized ID generation for the backend.
//
// Two generator families live here:
//   - ULID generation for operational identifiers (requests, services,
//     subscriptions). Lexicographically sortable, prefixed for debugging.
//   - Hex generation for trace and span identifiers in the W3C shape
//     (32 and 16 lowercase hex characters).
//
// Design Principles:
//   - Prefixed types: Type-specific prefixes for debugging (req_*, svc_*, sub_*)
//   - Type safety: Separate types prevent ID misuse
//   - Injectable entropy: Deterministic generation in tests
//
// Trace and span identifiers are random but NOT collision-resistant and
// NOT cryptographically secure. They identify operations in a simulated
// tracing fabric; never use them as security tokens.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	mathrand "math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// RequestID identifies an API request passing through the gateway
type RequestID string

// ServiceID identifies an upstream service record
type ServiceID string

// RouteID identifies a gateway route record
type RouteID string

// SubscriptionID identifies a pub/sub handler registration
type SubscriptionID string

// ConsumerID identifies a broker queue consumer
type ConsumerID string

// MessageID identifies a queued message envelope
type MessageID string

// PluginID identifies a gateway plugin attachment
type PluginID string

// PaymentID identifies a submitted payment across the pipeline
type PaymentID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	RequestPrefix      = "req"
	ServicePrefix      = "svc"
	RoutePrefix        = "rt"
	SubscriptionPrefix = "sub"
	ConsumerPrefix     = "con"
	MessagePrefix      = "msg"
	PluginPrefix       = "plg"
	PaymentPrefix      = "pay"
)

// ============================================================================
// ULID Generator (operational identifiers)
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewServiceID generates a new service ID
func NewServiceID() ServiceID {
	return ServiceID(Default().GenerateWithPrefix(ServicePrefix))
}

// NewRouteID generates a new route ID
func NewRouteID() RouteID {
	return RouteID(Default().GenerateWithPrefix(RoutePrefix))
}

// NewSubscriptionID generates a new subscription ID
func NewSubscriptionID() SubscriptionID {
	return SubscriptionID(Default().GenerateWithPrefix(SubscriptionPrefix))
}

// NewConsumerID generates a new consumer ID
func NewConsumerID() ConsumerID {
	return ConsumerID(Default().GenerateWithPrefix(ConsumerPrefix))
}

// NewMessageID generates a new message ID
func NewMessageID() MessageID {
	return MessageID(Default().GenerateWithPrefix(MessagePrefix))
}

// NewPluginID generates a new plugin ID
func NewPluginID() PluginID {
	return PluginID(Default().GenerateWithPrefix(PluginPrefix))
}

// NewPaymentID generates a new payment ID
func NewPaymentID() PaymentID {
	return PaymentID(Default().GenerateWithPrefix(PaymentPrefix))
}

// String methods for ID types
func (id RequestID) String() string      { return string(id) }
func (id ServiceID) String() string      { return string(id) }
func (id RouteID) String() string        { return string(id) }
func (id SubscriptionID) String() string { return string(id) }
func (id ConsumerID) String() string     { return string(id) }
func (id MessageID) String() string      { return string(id) }
func (id PluginID) String() string       { return string(id) }
func (id PaymentID) String() string      { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// ============================================================================
// Trace/Span Hex Generator (tracing identifiers)
// ============================================================================

const (
	// TraceIDBytes is the raw length of a trace identifier (32 hex chars)
	TraceIDBytes = 16
	// SpanIDBytes is the raw length of a span identifier (16 hex chars)
	SpanIDBytes = 8
)

var (
	// TraceIDPattern matches a well-formed trace identifier
	TraceIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
	// SpanIDPattern matches a well-formed span identifier
	SpanIDPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)
)

// TraceGenerator produces trace and span identifiers as lowercase hex.
//
// The default entropy is a seeded math/rand source: fast, reproducible
// under injected entropy, and explicitly non-cryptographic. Identifiers
// are unique enough for correlating simulated request flows; collisions
// are possible and tolerated.
type TraceGenerator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultTraceGen *TraceGenerator
	traceOnce       sync.Once
)

// DefaultTrace returns the singleton trace generator instance
func DefaultTrace() *TraceGenerator {
	traceOnce.Do(func() {
		defaultTraceGen = NewTraceGenerator()
	})
	return defaultTraceGen
}

// NewTraceGenerator creates a trace generator with non-crypto entropy
func NewTraceGenerator() *TraceGenerator {
	return &TraceGenerator{
		entropy: mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// NewTraceGeneratorWithEntropy creates a trace generator with custom
// entropy, useful for deterministic tests
func NewTraceGeneratorWithEntropy(entropy io.Reader) *TraceGenerator {
	return &TraceGenerator{
		entropy: entropy,
	}
}

// TraceID generates a 32-character lowercase hex trace identifier
func (g *TraceGenerator) TraceID() string {
	return g.generateHex(TraceIDBytes)
}

// SpanID generates a 16-character lowercase hex span identifier
func (g *TraceGenerator) SpanID() string {
	return g.generateHex(SpanIDBytes)
}

func (g *TraceGenerator) generateHex(n int) string {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	buf := make([]byte, n)
	if _, err := io.ReadFull(g.entropy, buf); err != nil {
		// math/rand sources never fail; custom entropy might. A zeroed
		// identifier is still well-formed and keeps tracing advisory.
		return hex.EncodeToString(buf)
	}
	return hex.EncodeToString(buf)
}

// NewTraceID generates a trace identifier with the default generator
func NewTraceID() string {
	return DefaultTrace().TraceID()
}

// NewSpanID generates a span identifier with the default generator
func NewSpanID() string {
	return DefaultTrace().SpanID()
}

// IsValidTraceID checks if a string is a well-formed trace identifier
func IsValidTraceID(s string) bool {
	return TraceIDPattern.MatchString(s)
}

// IsValidSpanID checks if a string is a well-formed span identifier
func IsValidSpanID(s string) bool {
	return SpanIDPattern.MatchString(s)
}
