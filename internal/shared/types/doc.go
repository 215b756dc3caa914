// Package types provides shared data structures for the CoinFlow backend.
//
// This package defines core types used across backend components,
// ensuring type safety and consistent data structures.
//
// Messaging Types:
//   - QueueMessage: Immutable trace-stamped queue envelope
//   - QueueConfig, QueueSnapshot: Queue declaration and monitoring
//   - QueueEvent: Activity notifications for the monitor stream
//   - DeliveryPolicy: Exclusive vs broadcast consumer dispatch
//
// Gateway Types:
//   - Service, Route, Plugin: Registry records for the edge
//
// Payment Types:
//   - PaymentRequest: Inbound payment submission
//   - PaymentReceipt: Validation outcome
//   - AuditEntry: Audit trail record with payload digest
//
// Example Usage:
//
//	msg := types.QueueMessage{
//	    ID:      id.NewMessageID().String(),
//	    Queue:   "payment.processing",
//	    TraceID: tc.TraceID,
//	    SpanID:  id.NewSpanID(),
//	}
package types
