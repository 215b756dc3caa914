package types

import (
	"time"

	"github.com/bytedance/sonic"
)

// DeliveryPolicy declares how a queue hands messages to its consumers.
type DeliveryPolicy string

const (
	// PolicyExclusive delivers each message to the first registered
	// consumer only (AMQP-style work queue)
	PolicyExclusive DeliveryPolicy = "exclusive"
	// PolicyBroadcast delivers each message to every registered handler
	// (JMS-style topic)
	PolicyBroadcast DeliveryPolicy = "broadcast"
)

// QueueConfig describes a declared queue
type QueueConfig struct {
	Name   string         `json:"name"`
	Policy DeliveryPolicy `json:"policy"`
}

// QueueMessage is the immutable envelope carried by queues.
//
// TraceID, SpanID, and ParentSpanID are stamped from the publishing
// context: SpanID names the causal step that produced the message,
// ParentSpanID the step before it, and TraceID never changes across
// hops. Properties duplicates the trace triple as string pairs for wire
// compatibility with header-based brokers.
type QueueMessage struct {
	ID           string                 `json:"message_id"`
	Topic        string                 `json:"topic"`
	TraceID      string                 `json:"trace_id"`
	SpanID       string                 `json:"span_id"`
	ParentSpanID string                 `json:"parent_span_id,omitempty"`
	Payload      map[string]interface{} `json:"payload"`
	Timestamp    time.Time              `json:"timestamp"`
	Properties   map[string]string      `json:"properties"`
}

// Clone returns an independent copy of the message so holders cannot
// mutate retained envelopes through shared maps.
func (m QueueMessage) Clone() QueueMessage {
	out := m
	out.Payload = ClonePayload(m.Payload)
	props := make(map[string]string, len(m.Properties))
	for k, v := range m.Properties {
		props[k] = v
	}
	out.Properties = props
	return out
}

// ClonePayload deep-copies a payload map through a JSON round trip.
// Values that do not survive JSON fall back to a shallow copy.
func ClonePayload(payload map[string]interface{}) map[string]interface{} {
	if len(payload) == 0 {
		return map[string]interface{}{}
	}

	raw, err := sonic.Marshal(payload)
	if err != nil {
		return shallowCopy(payload)
	}

	var out map[string]interface{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return shallowCopy(payload)
	}
	return out
}

func shallowCopy(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// QueueSnapshot summarizes one queue for the monitoring surface
type QueueSnapshot struct {
	Name         string         `json:"name"`
	Policy       DeliveryPolicy `json:"policy"`
	MessageCount int            `json:"message_count"`
	HasConsumer  bool           `json:"has_consumer"`
	IsProcessing bool           `json:"is_processing"`
}

// QueueEvent is a lightweight notification emitted on queue activity,
// consumed by the WebSocket monitor stream
type QueueEvent struct {
	Type      string    `json:"type"`
	Queue     string    `json:"queue"`
	MessageID string    `json:"message_id"`
	TraceID   string    `json:"trace_id"`
	SpanID    string    `json:"span_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Queue event types
const (
	EventPublished = "published"
	EventDelivered = "delivered"
	EventRouted    = "routed"
	EventFailed    = "failed"
)
