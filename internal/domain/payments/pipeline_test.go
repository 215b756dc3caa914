package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/broker"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/pubsub"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/simulate"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/tracing"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/id"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

type fixture struct {
	pipeline *Pipeline
	router   *broker.Router
	client   *pubsub.Client
	clock    *simulate.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := simulate.NewFakeClock(time.Unix(1700000000, 0))

	router := broker.New(logging.NewNop()).
		WithClock(clock).
		WithDelay(simulate.Fixed(10 * time.Millisecond))
	require.NoError(t, router.DeclareQueues(broker.DefaultQueues()))

	client := pubsub.New(logging.NewNop()).
		WithClock(clock).
		WithConnectDelay(50 * time.Millisecond).
		WithDelivery(simulate.Fixed(5 * time.Millisecond))
	require.NoError(t, client.DeclareQueues(pubsub.DefaultQueues()))

	client.Connect()
	clock.Advance(50 * time.Millisecond)

	pipeline := New(logging.NewNop(), router, client).WithClock(clock)
	require.NoError(t, pipeline.Register())

	return &fixture{pipeline: pipeline, router: router, client: client, clock: clock}
}

// drain walks the whole simulated flow: processing delivery with
// fan-out, then the branch deliveries, then the pub/sub deliveries.
func (f *fixture) drain() {
	f.clock.Advance(10 * time.Millisecond)
	f.clock.Advance(10 * time.Millisecond)
	f.clock.Advance(5 * time.Millisecond)
}

func request() types.PaymentRequest {
	return types.PaymentRequest{Recipient: "merchant-042", Amount: 125.5, Currency: "USD"}
}

func TestSubmitPublishesChildContext(t *testing.T) {
	f := newFixture(t)

	parent := tracing.TraceContext{
		TraceID: strings.Repeat("a", 32),
		SpanID:  strings.Repeat("b", 16),
	}
	ctx := tracing.ContextWith(context.Background(), parent)

	result, err := f.pipeline.Submit(ctx, request())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.PaymentID, "pay_"))
	assert.Equal(t, parent.TraceID, result.Trace.TraceID)
	assert.Equal(t, parent.SpanID, result.Trace.ParentSpanID)
	assert.True(t, id.IsValidSpanID(result.Trace.SpanID))

	msgs, err := f.router.Messages(broker.QueueProcessing)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, result.MessageID, msgs[0].ID)
	assert.Equal(t, result.Trace.TraceID, msgs[0].TraceID)
	assert.Equal(t, result.Trace.SpanID, msgs[0].SpanID)
}

func TestSubmitWithoutCallerContextStartsTrace(t *testing.T) {
	f := newFixture(t)

	result, err := f.pipeline.Submit(context.Background(), request())
	require.NoError(t, err)

	assert.True(t, result.Trace.Valid())
	assert.Empty(t, result.Trace.ParentSpanID)
}

func TestSubmitRejectsInvalid(t *testing.T) {
	f := newFixture(t)

	bad := []types.PaymentRequest{
		{Recipient: "", Amount: 10, Currency: "USD"},
		{Recipient: "merchant-042", Amount: 0, Currency: "USD"},
		{Recipient: "merchant-042", Amount: -3, Currency: "USD"},
		{Recipient: "merchant-042", Amount: 10, Currency: "dollars"},
	}
	for _, req := range bad {
		_, err := f.pipeline.Submit(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidPayment)
	}

	assert.Equal(t, 0, f.router.Stats()[broker.QueueProcessing], "rejected submissions never reach the queue")
}

func TestApprovedReceiptReachesSubscribers(t *testing.T) {
	f := newFixture(t)

	var receipts []types.QueueMessage
	_, err := f.client.Subscribe(pubsub.QueueReceipts, func(msg types.QueueMessage) error {
		receipts = append(receipts, msg)
		return nil
	})
	require.NoError(t, err)

	result, err := f.pipeline.Submit(context.Background(), request())
	require.NoError(t, err)
	f.drain()

	require.Len(t, receipts, 1)
	assert.Equal(t, result.PaymentID, receipts[0].Payload["payment_id"])
	assert.Equal(t, string(types.StatusApproved), receipts[0].Payload["status"])
	assert.Equal(t, result.Trace.TraceID, receipts[0].TraceID, "receipt stays on the submission's trace")
}

func TestRejectedPaymentCarriesReason(t *testing.T) {
	f := newFixture(t)

	var receipts []types.QueueMessage
	_, err := f.client.Subscribe(pubsub.QueueReceipts, func(msg types.QueueMessage) error {
		receipts = append(receipts, msg)
		return nil
	})
	require.NoError(t, err)

	// a producer bypassing Submit can enqueue anything; the validator
	// must catch it
	payload := map[string]interface{}{
		"payment_id": "pay_manual",
		"recipient":  "merchant-042",
		"amount":     -5.0,
		"currency":   "USD",
	}
	_, err = f.router.Publish(broker.QueueProcessing, payload, tracing.NewRootContext())
	require.NoError(t, err)
	f.drain()

	require.Len(t, receipts, 1)
	assert.Equal(t, string(types.StatusRejected), receipts[0].Payload["status"])
	reason, _ := receipts[0].Payload["reason"].(string)
	assert.NotEmpty(t, reason)
}

func TestOrderUpdateBroadcast(t *testing.T) {
	f := newFixture(t)

	var updates []types.QueueMessage
	_, err := f.client.Subscribe(pubsub.QueueUpdates, func(msg types.QueueMessage) error {
		updates = append(updates, msg)
		return nil
	})
	require.NoError(t, err)

	_, err = f.pipeline.Submit(context.Background(), request())
	require.NoError(t, err)
	f.drain()

	require.Len(t, updates, 1)
	payload := updates[0].Payload
	assert.Equal(t, "merchant-042", payload["recipient"])
	assert.Equal(t, 125.5, payload["amount"])
	assert.Equal(t, "USD", payload["currency"])
	assert.NotEmpty(t, payload["notified_at"])
	assert.NotContains(t, payload, "payment_id", "notification branch carries the trimmed payload")
}

func TestAuditTrailRecords(t *testing.T) {
	f := newFixture(t)

	result, err := f.pipeline.Submit(context.Background(), request())
	require.NoError(t, err)
	f.drain()

	entries := f.pipeline.Trail().Entries()
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, result.Trace.TraceID, entry.TraceID)
	assert.Len(t, entry.Digest, 64)

	msgs, err := f.router.Messages(broker.QueueAudit)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, result.Trace.SpanID, msgs[0].ParentSpanID, "audit branch hangs off the processing span")
	assert.Equal(t, msgs[0].SpanID, entry.SpanID)

	// connect took 50ms, processing fired 10ms later
	want := time.Unix(1700000000, 0).Add(60 * time.Millisecond)
	assert.True(t, entry.ProcessedAt.Equal(want), "processed_at stamped at fan-out time")
}

func TestUnreadyPubSubDeadLetters(t *testing.T) {
	clock := simulate.NewFakeClock(time.Unix(1700000000, 0))

	router := broker.New(logging.NewNop()).
		WithClock(clock).
		WithDelay(simulate.Fixed(10 * time.Millisecond))
	require.NoError(t, router.DeclareQueues(broker.DefaultQueues()))

	client := pubsub.New(logging.NewNop()).WithClock(clock)
	require.NoError(t, client.DeclareQueues(pubsub.DefaultQueues()))

	pipeline := New(logging.NewNop(), router, client).WithClock(clock)
	require.NoError(t, pipeline.Register())

	_, err := pipeline.Submit(context.Background(), request())
	require.NoError(t, err)
	clock.Advance(10 * time.Millisecond)
	clock.Advance(10 * time.Millisecond)

	assert.Equal(t, 2, router.Stats()[broker.QueueDeadletter], "validator and notifier failures forwarded")
	assert.Equal(t, 1, pipeline.Trail().Len(), "auditor does not need the pub/sub fabric")
}

func TestTrailEntriesCopied(t *testing.T) {
	trail := NewAuditTrail()
	trail.Record(types.AuditEntry{MessageID: "msg_1"})

	entries := trail.Entries()
	entries[0].MessageID = "mutated"

	assert.Equal(t, "msg_1", trail.Entries()[0].MessageID)
	assert.Equal(t, 1, trail.Len())
}
