package tracing

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/simulate"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/id"
)

// DecisionKey is the gin context key holding the gateway's Decision.
const DecisionKey = "trace_decision"

// Decision records the tracing outcome of one gateway hop.
type Decision struct {
	SpanCreated bool   `json:"span_created"`
	TraceID     string `json:"trace_id"`
	SpanID      string `json:"span_id"`
}

// GetDecision returns the Decision recorded for the current request.
func GetDecision(c *gin.Context) (Decision, bool) {
	v, ok := c.Get(DecisionKey)
	if !ok {
		return Decision{}, false
	}
	d, ok := v.(Decision)
	return d, ok
}

// GatewayMiddleware decides, per request, whether this hop originates a
// new trace or passes an existing one through.
//
// When neither carrier form is present the gateway is the trace origin:
// it generates fresh identifiers, opens the entry-point span, and writes
// both carrier forms onto the forwarded request. When either carrier is
// present the request passes through untouched and no span is opened;
// the gateway never mints a second root.
//
// Independently of that decision, every response is stamped with a
// request id and simulated proxy/upstream latency headers. The latency
// profile models gateway overhead; its samples also annotate the span.
func GatewayMiddleware(tracer *Tracer, latency simulate.Profile) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := id.NewRequestID()
		proxyLat := latency.Sample()
		upstreamLat := latency.Sample()

		// Operational headers go out before any handler writes the body.
		c.Header(HeaderRequestID, reqID.String())
		c.Header(HeaderProxyLatency, strconv.FormatInt(proxyLat.Milliseconds(), 10))
		c.Header(HeaderUpstreamLatency, strconv.FormatInt(upstreamLat.Milliseconds(), 10))

		var span *Span
		var decision Decision

		if CarrierPresent(c.Request.Header) {
			// Pass-through: carriers forward byte-for-byte, zero spans.
			decision = Decision{SpanCreated: false}
			if tc, ok := Extract(c.Request.Header); ok {
				decision.TraceID = tc.TraceID
				decision.SpanID = tc.SpanID
				c.Request = c.Request.WithContext(ContextWith(c.Request.Context(), tc))
			}
		} else {
			var ctx = c.Request.Context()
			span, ctx = tracer.StartSpan(ctx, c.FullPath(), KindServer)
			span.SetAttr("http.method", c.Request.Method)
			span.SetAttr("http.path", c.Request.URL.Path)
			span.SetAttr("http.host", c.Request.Host)
			span.SetAttr("gateway.entry_point", "true")
			span.SetAttr("gateway.trace_origin", "generated")
			span.SetAttr("gateway.request_id", reqID.String())

			// Both carrier forms, mutually consistent, onto the
			// forwarded request and echoed on the response.
			Inject(c.Request.Header, span.Context())
			c.Header(HeaderTraceID, span.TraceID)
			c.Header(HeaderSpanID, span.SpanID)
			c.Header(HeaderTraceparent, FormatTraceparent(span.Context()))

			c.Request = c.Request.WithContext(ctx)
			decision = Decision{SpanCreated: true, TraceID: span.TraceID, SpanID: span.SpanID}
		}

		c.Set(DecisionKey, decision)

		c.Next()

		// Completion hook, once per request. Closes the span only if
		// this hop opened one.
		if span == nil {
			return
		}

		status := c.Writer.Status()
		span.SetStatus(status)
		span.SetAttr("http.status", strconv.Itoa(status))
		span.SetAttr("gateway.proxy_latency_ms", strconv.FormatInt(proxyLat.Milliseconds(), 10))
		span.SetAttr("gateway.upstream_latency_ms", strconv.FormatInt(upstreamLat.Milliseconds(), 10))

		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		} else if status >= http.StatusInternalServerError {
			span.SetError(fmt.Errorf("upstream returned %d", status))
		}

		span.Finish()
		tracer.Submit(span)
	}
}
