/*
Package tracing provides the trace fabric for the payment demo stack.

# Overview

This package implements lightweight distributed tracing across the gateway,
broker, and pub/sub components. It follows OpenTelemetry concepts but with a
minimal implementation tailored to a simulation: identifiers are random hex,
spans are plain structs, and export is advisory.

# Identity

A TraceContext is the causal triple {trace id, span id, parent span id}.
Trace ids are 32 lowercase hex characters and live for one logical
operation; span ids are 16 hex characters, fresh per causal step. A parented
context always shares its trace id with the parent; roots have no parent.
Contexts are copied by value between components.

# Carriers

Two wire forms are recognized on inbound requests and emitted together,
mutually consistent, when the gateway originates context:

  - Legacy pair: X-Trace-ID / X-Span-ID headers
  - Combined: traceparent: 00-<32 hex>-<16 hex>-<2 hex flags>

The gateway decision rule is presence-based: if neither form is present the
gateway generates fresh identifiers and opens the entry-point span; if either
is present the request passes through byte-for-byte with no span. Malformed
carriers count as present and forward unchanged.

# Usage

	// Create tracer
	tracer := tracing.New("gateway", logger)

	// Gateway middleware with simulated latency headers
	router.Use(tracing.GatewayMiddleware(tracer, simulate.NewUniform(2*time.Millisecond, 20*time.Millisecond)))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "payments.submit", tracing.KindProducer)
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	span.SetAttr("payment.currency", "BTC")

# Export

Finished spans flow through a buffered channel (1000 spans) to an Exporter.
The default LogExporter writes structured log lines; CollectorExporter posts
gzip-compressed JSON to an HTTP collector behind retries and a circuit
breaker. Tracing is strictly advisory: export failures are logged and
swallowed, and never fail, delay, or alter the request they describe.

# Identifier Generation

Trace and span ids come from a seeded math/rand source, not crypto/rand.
Collision resistance is probabilistic only; do not reuse these generators
where uniqueness is load-bearing.
*/
package tracing
