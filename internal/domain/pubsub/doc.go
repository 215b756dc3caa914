/*
Package pubsub implements the broadcast side of the messaging layer.

# Overview

Where the broker routes work through exclusive queues, the pub/sub
client fans events out to every listener. Receipts, order updates, and
market ticks are streams many components watch at once, so their queues
declare broadcast delivery.

# Connection

Connecting is asynchronous: Connect returns a channel that closes once
the simulated establishment delay elapses. Until then the client
reports connecting and rejects every publish with
ErrConnectionNotReady. Nothing queues while disconnected; callers see
the failure immediately.

Subscribing needs no connection. Handlers registered before Connect
simply start receiving once traffic flows.

# Delivery

Publish stamps the caller's trace context onto the envelope, then
schedules delivery after a bounded random latency. At delivery time
every handler subscribed to the queue receives the message,
sequentially, in subscription order. A handler error or panic is
logged and counted but never reaches the publisher and never skips the
remaining handlers.

# Usage

	client := pubsub.New(logger)
	client.DeclareQueues(pubsub.DefaultQueues())

	ready := client.Connect()
	<-ready

	client.Subscribe(pubsub.QueueReceipts, func(msg types.QueueMessage) error {
		return store.Record(msg)
	})
	client.Publish(pubsub.QueueReceipts, payload, tc)
*/
package pubsub
