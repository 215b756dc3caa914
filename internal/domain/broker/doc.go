/*
Package broker implements the in-process payment queue router.

# Overview

The router owns a fixed set of queues declared at startup. Publishing
appends an immutable envelope in O(1) and schedules asynchronous
processing after a simulated network delay, so publishers observe
broker-like latency without a broker on the wire. Envelopes carry the
publisher's trace context unchanged; fresh span identifiers are minted
where new causal steps begin, at fan-out and at producer call sites.

# Queues

Five queues cover the payment flow:

  - payment.processing: entry point for submitted payments
  - payment.validation: fan-out branch carrying the full payload
  - payment.notification: fan-out branch carrying recipient details
  - payment.audit: fan-out branch carrying the full payload plus
    processing metadata
  - payment.deadletter: terminal queue for failed deliveries

# Fan-Out

Only messages landing on payment.processing fan out. Each produces
exactly three derived messages, published in the fixed order
validation, notification, audit. All three copy the processing
message's trace id and set their parent span id to the processing
message's span id, so the trace forms a diamond: one parent with three
siblings, not a chain. Fan-out happens for every processing message
regardless of payload shape; the validation consumer judges validity
downstream.

Branch payloads differ:

  - validation receives the full payload plus requires_validation=true
  - notification receives only recipient, amount, and currency
  - audit receives the full payload plus processed_at and a payload
    digest

# Delivery

Queues declare a delivery policy. Exclusive queues deliver to the first
registered consumer only; broadcast queues deliver to all. Consumer
errors and panics are contained: logged, counted, and forwarded to
payment.deadletter with the failing queue and error attached. A failure
on the dead letter queue itself stops there.

# Envelopes

Retained messages are immutable. Payloads are deep-copied on publish
and again on delivery, so neither publishers nor consumers can mutate
queue state through held references.

# Determinism

The clock and delay profile are injectable. Tests drive processing with
a fake clock and a fixed profile instead of sleeping:

	router := broker.New(logger).
		WithClock(clock).
		WithDelay(simulate.Fixed(10 * time.Millisecond))
	router.DeclareQueues(broker.DefaultQueues())

	router.Publish(broker.QueueProcessing, payload, tc)
	clock.Advance(10 * time.Millisecond)
*/
package broker
