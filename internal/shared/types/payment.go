package types

import "time"

// PaymentStatus represents payment lifecycle states
type PaymentStatus string

const (
	StatusSubmitted PaymentStatus = "submitted"
	StatusApproved  PaymentStatus = "approved"
	StatusRejected  PaymentStatus = "rejected"
)

// PaymentRequest is the inbound payload for submitting a payment
type PaymentRequest struct {
	Recipient string  `json:"recipient" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Currency  string  `json:"currency" binding:"required"`
	Memo      string  `json:"memo,omitempty"`
}

// PaymentReceipt is published to the receipts queue once validation
// has judged a payment
type PaymentReceipt struct {
	PaymentID string        `json:"payment_id"`
	Status    PaymentStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	IssuedAt  time.Time     `json:"issued_at"`
}

// AuditEntry is the audit trail record kept for every processed payment
type AuditEntry struct {
	MessageID   string    `json:"message_id"`
	TraceID     string    `json:"trace_id"`
	SpanID      string    `json:"span_id"`
	Digest      string    `json:"digest"`
	ProcessedAt time.Time `json:"processed_at"`
}
