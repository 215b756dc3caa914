package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/id"
)

// Carrier and operational header names used at the gateway boundary.
const (
	HeaderTraceID     = "X-Trace-ID"
	HeaderSpanID      = "X-Span-ID"
	HeaderTraceparent = "traceparent"

	HeaderRequestID       = "X-Request-ID"
	HeaderProxyLatency    = "X-Gateway-Proxy-Latency"
	HeaderUpstreamLatency = "X-Gateway-Upstream-Latency"
)

const (
	// TraceparentVersion is the only combined-carrier version the gateway emits.
	TraceparentVersion = "00"

	// traceparentFlags marks emitted carriers as sampled.
	traceparentFlags = "01"
)

// TraceContext is the causal identity copied between components.
//
// A context with a ParentSpanID always shares TraceID with the span that
// produced it; roots have no parent. Values are plain data and are always
// copied, never shared.
type TraceContext struct {
	TraceID      string `json:"trace_id"`
	SpanID       string `json:"span_id"`
	ParentSpanID string `json:"parent_span_id,omitempty"`
}

// NewRootContext generates a fresh identity with no parent.
func NewRootContext() TraceContext {
	return TraceContext{
		TraceID: id.NewTraceID(),
		SpanID:  id.NewSpanID(),
	}
}

// Child derives a context one causal step below tc: same trace, fresh
// span, parent pinned to tc's span.
func (tc TraceContext) Child() TraceContext {
	return TraceContext{
		TraceID:      tc.TraceID,
		SpanID:       id.NewSpanID(),
		ParentSpanID: tc.SpanID,
	}
}

// IsZero reports whether tc carries no identity at all.
func (tc TraceContext) IsZero() bool {
	return tc.TraceID == "" && tc.SpanID == ""
}

// Valid reports whether both identifiers are well-formed.
func (tc TraceContext) Valid() bool {
	return id.IsValidTraceID(tc.TraceID) && id.IsValidSpanID(tc.SpanID)
}

// Properties renders the trace triple as string pairs for message
// envelopes that carry trace identity in header-style properties.
func (tc TraceContext) Properties() map[string]string {
	p := map[string]string{
		"trace_id": tc.TraceID,
		"span_id":  tc.SpanID,
	}
	if tc.ParentSpanID != "" {
		p["parent_span_id"] = tc.ParentSpanID
	}
	return p
}

// Normalize lowercases an identifier and strips hyphens so UUID-shaped
// values collapse to plain hex. Idempotent: Normalize(Normalize(x)) ==
// Normalize(x).
func Normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", ""))
}

// FormatTraceparent renders the combined carrier:
// 00-<32 hex trace id>-<16 hex span id>-<2 hex flags>.
func FormatTraceparent(tc TraceContext) string {
	return fmt.Sprintf("%s-%s-%s-%s", TraceparentVersion, tc.TraceID, tc.SpanID, traceparentFlags)
}

// ParseTraceparent decodes a combined carrier. Flags are validated and
// discarded; the simulation makes no sampling decisions.
func ParseTraceparent(s string) (TraceContext, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return TraceContext{}, fmt.Errorf("traceparent: expected 4 segments, got %d", len(parts))
	}
	if len(parts[0]) != 2 || !isLowerHex(parts[0]) {
		return TraceContext{}, fmt.Errorf("traceparent: bad version %q", parts[0])
	}
	if !id.IsValidTraceID(parts[1]) {
		return TraceContext{}, fmt.Errorf("traceparent: bad trace id %q", parts[1])
	}
	if !id.IsValidSpanID(parts[2]) {
		return TraceContext{}, fmt.Errorf("traceparent: bad span id %q", parts[2])
	}
	if len(parts[3]) != 2 || !isLowerHex(parts[3]) {
		return TraceContext{}, fmt.Errorf("traceparent: bad flags %q", parts[3])
	}
	return TraceContext{TraceID: parts[1], SpanID: parts[2]}, nil
}

func isLowerHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// CarrierPresent reports whether the request already carries trace
// context in either form. Malformed carriers still count as present:
// the gateway forwards them untouched rather than minting a second root.
func CarrierPresent(h http.Header) bool {
	return h.Get(HeaderTraceID) != "" ||
		h.Get(HeaderSpanID) != "" ||
		h.Get(HeaderTraceparent) != ""
}

// Extract pulls a usable trace context from inbound carriers, preferring
// the legacy pair over the combined form. Identifiers are normalized for
// downstream use; the raw headers are never rewritten here.
func Extract(h http.Header) (TraceContext, bool) {
	if raw := h.Get(HeaderTraceID); raw != "" {
		return TraceContext{
			TraceID: Normalize(raw),
			SpanID:  Normalize(h.Get(HeaderSpanID)),
		}, true
	}
	if raw := h.Get(HeaderTraceparent); raw != "" {
		if tc, err := ParseTraceparent(raw); err == nil {
			return tc, true
		}
	}
	return TraceContext{}, false
}

// Inject writes both carrier forms, mutually consistent, onto h.
func Inject(h http.Header, tc TraceContext) {
	h.Set(HeaderTraceID, tc.TraceID)
	h.Set(HeaderSpanID, tc.SpanID)
	h.Set(HeaderTraceparent, FormatTraceparent(tc))
}

type contextKey struct{}

// ContextWith returns a context carrying tc for downstream publishers.
func ContextWith(ctx context.Context, tc TraceContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the trace context installed upstream, if any.
func FromContext(ctx context.Context) (TraceContext, bool) {
	tc, ok := ctx.Value(contextKey{}).(TraceContext)
	return tc, ok
}
