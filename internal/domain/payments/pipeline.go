package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/broker"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/pubsub"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/simulate"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/tracing"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/id"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/utils"
)

// ErrInvalidPayment rejects a submission before it reaches the queue.
var ErrInvalidPayment = errors.New("invalid payment")

// SubmitResult reports the identifiers minted for an accepted
// submission. Trace is the exact context stamped on the queued message.
type SubmitResult struct {
	PaymentID string               `json:"payment_id"`
	MessageID string               `json:"message_id"`
	Trace     tracing.TraceContext `json:"trace"`
}

// Pipeline wires the payment flow: Submit produces into the processing
// queue, and the registered consumers handle the three derived
// branches. The validator judges payloads and issues receipts, the
// notifier broadcasts order updates, and the auditor keeps the trail.
type Pipeline struct {
	logger  *logging.Logger
	router  *broker.Router
	client  *pubsub.Client
	clock   simulate.Clock
	trail   *AuditTrail
	metrics *monitoring.Metrics
}

// New creates a pipeline over the given broker and pub/sub client.
func New(logger *logging.Logger, router *broker.Router, client *pubsub.Client) *Pipeline {
	return &Pipeline{
		logger: logger,
		router: router,
		client: client,
		clock:  simulate.System(),
		trail:  NewAuditTrail(),
	}
}

// WithClock replaces the time source, for deterministic tests.
func (p *Pipeline) WithClock(clock simulate.Clock) *Pipeline {
	p.clock = clock
	return p
}

// WithMetrics adds metrics tracking to the pipeline.
func (p *Pipeline) WithMetrics(metrics *monitoring.Metrics) *Pipeline {
	p.metrics = metrics
	return p
}

// Trail exposes the audit records for the monitor surface.
func (p *Pipeline) Trail() *AuditTrail {
	return p.trail
}

// Register subscribes the branch consumers. Call once, after the
// broker's queues are declared.
func (p *Pipeline) Register() error {
	consumers := []struct {
		queue string
		fn    broker.Consumer
	}{
		{broker.QueueValidation, p.handleValidation},
		{broker.QueueNotification, p.handleNotification},
		{broker.QueueAudit, p.handleAudit},
	}
	for _, c := range consumers {
		if _, err := p.router.Subscribe(c.queue, c.fn); err != nil {
			return fmt.Errorf("register %s consumer: %w", c.queue, err)
		}
	}

	p.logger.Info("payment consumers registered", zap.Int("count", len(consumers)))
	return nil
}

// Submit validates the request and produces it into the processing
// queue. The message is stamped with a child of the caller's trace
// context; callers without one start a fresh trace.
func (p *Pipeline) Submit(ctx context.Context, req types.PaymentRequest) (SubmitResult, error) {
	if err := validate(req); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}

	tc := tracing.NewRootContext()
	if parent, ok := tracing.FromContext(ctx); ok {
		tc = parent.Child()
	}

	paymentID := id.NewPaymentID().String()
	payload := map[string]interface{}{
		"payment_id": paymentID,
		"recipient":  req.Recipient,
		"amount":     req.Amount,
		"currency":   req.Currency,
	}
	if req.Memo != "" {
		payload["memo"] = req.Memo
	}

	msgID, err := p.router.Publish(broker.QueueProcessing, payload, tc)
	if err != nil {
		return SubmitResult{}, err
	}

	if p.metrics != nil {
		p.metrics.RecordPaymentSubmitted()
	}
	p.logger.WithTrace(tc.TraceID, tc.SpanID).Info("payment submitted",
		zap.String("payment_id", paymentID),
		zap.String("message_id", msgID.String()),
	)
	return SubmitResult{PaymentID: paymentID, MessageID: msgID.String(), Trace: tc}, nil
}

// handleValidation judges the payment and publishes a receipt. Messages
// on the validation branch may come from producers other than Submit,
// so the payload is re-checked rather than trusted.
func (p *Pipeline) handleValidation(msg types.QueueMessage) error {
	receipt := types.PaymentReceipt{
		PaymentID: payloadString(msg.Payload, "payment_id"),
		Status:    types.StatusApproved,
		IssuedAt:  p.clock.Now(),
	}
	if err := validatePayload(msg.Payload); err != nil {
		receipt.Status = types.StatusRejected
		receipt.Reason = err.Error()
	}

	payload := map[string]interface{}{
		"payment_id": receipt.PaymentID,
		"status":     string(receipt.Status),
		"issued_at":  receipt.IssuedAt.Format(time.RFC3339Nano),
	}
	if receipt.Reason != "" {
		payload["reason"] = receipt.Reason
	}

	if _, err := p.client.Publish(pubsub.QueueReceipts, payload, childOf(msg)); err != nil {
		return fmt.Errorf("publish receipt: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordPaymentValidated(string(receipt.Status))
	}
	p.logger.WithTrace(msg.TraceID, msg.SpanID).Info("payment judged",
		zap.String("payment_id", receipt.PaymentID),
		zap.String("status", string(receipt.Status)),
	)
	return nil
}

// handleNotification broadcasts an order update for the recipient.
func (p *Pipeline) handleNotification(msg types.QueueMessage) error {
	payload := types.ClonePayload(msg.Payload)
	payload["notified_at"] = p.clock.Now().Format(time.RFC3339Nano)

	if _, err := p.client.Publish(pubsub.QueueUpdates, payload, childOf(msg)); err != nil {
		return fmt.Errorf("publish order update: %w", err)
	}
	return nil
}

// handleAudit records the trail entry stamped at fan-out.
func (p *Pipeline) handleAudit(msg types.QueueMessage) error {
	entry := types.AuditEntry{
		MessageID:   msg.ID,
		TraceID:     msg.TraceID,
		SpanID:      msg.SpanID,
		Digest:      payloadString(msg.Payload, "digest"),
		ProcessedAt: p.clock.Now(),
	}
	if raw := payloadString(msg.Payload, "processed_at"); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			entry.ProcessedAt = ts
		}
	}

	p.trail.Record(entry)
	return nil
}

func validate(req types.PaymentRequest) error {
	if err := utils.ValidateRecipient(req.Recipient); err != nil {
		return err
	}
	if err := utils.ValidateAmount(req.Amount); err != nil {
		return err
	}
	if err := utils.ValidateCurrency(req.Currency); err != nil {
		return err
	}
	return utils.ValidateString(req.Memo, "memo", 0, utils.MaxMemoLength, false)
}

func validatePayload(payload map[string]interface{}) error {
	if err := utils.ValidateRecipient(payloadString(payload, "recipient")); err != nil {
		return err
	}
	amount, ok := payloadFloat(payload, "amount")
	if !ok {
		return fmt.Errorf("amount must be a number")
	}
	if err := utils.ValidateAmount(amount); err != nil {
		return err
	}
	return utils.ValidateCurrency(payloadString(payload, "currency"))
}

// childOf derives the publish context one causal step below msg.
func childOf(msg types.QueueMessage) tracing.TraceContext {
	return tracing.TraceContext{TraceID: msg.TraceID, SpanID: msg.SpanID}.Child()
}

func payloadString(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}

func payloadFloat(payload map[string]interface{}, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
