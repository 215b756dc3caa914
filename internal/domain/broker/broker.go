package broker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/simulate"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/tracing"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/id"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/utils"
)

var (
	// ErrUndeclaredQueue flags a publish or subscribe outside the
	// declared set. Configuration errors surface loudly; queues are
	// never created on demand.
	ErrUndeclaredQueue = errors.New("queue not declared")

	// ErrQueueAlreadyDeclared flags a duplicate declaration.
	ErrQueueAlreadyDeclared = errors.New("queue already declared")
)

// Consumer handles messages delivered from a queue. Returned errors are
// contained: logged, counted, forwarded to the dead letter queue, and
// never propagated to the publisher.
type Consumer func(msg types.QueueMessage) error

// Notifier receives queue activity events, e.g. the WebSocket monitor
// stream.
type Notifier interface {
	Notify(event types.QueueEvent)
}

type registration struct {
	id id.ConsumerID
	fn Consumer
}

type queue struct {
	config    types.QueueConfig
	messages  []*types.QueueMessage
	consumers []registration
	inflight  int
}

// Router owns the declared queues and routes published messages.
//
// Publishing appends the envelope in O(1) and schedules asynchronous
// processing after a simulated delay. Messages landing on the
// processing queue fan out into validation, notification, and audit
// branches that all share the parent's trace and point their parent
// span at the processing message's span.
type Router struct {
	logger   *logging.Logger
	clock    simulate.Clock
	delay    simulate.Profile
	gen      *id.TraceGenerator
	digest   *utils.PaymentFingerprint
	notifier Notifier
	metrics  *monitoring.Metrics

	mu     sync.RWMutex
	queues map[string]*queue
	order  []string
}

// New creates a Router with a system clock and default identifiers.
func New(logger *logging.Logger) *Router {
	return &Router{
		logger: logger,
		clock:  simulate.System(),
		delay:  simulate.NewUniform(10*time.Millisecond, 50*time.Millisecond),
		gen:    id.DefaultTrace(),
		digest: utils.NewPaymentFingerprint(utils.DefaultHasher()),
		queues: make(map[string]*queue),
	}
}

// WithClock replaces the scheduler, for deterministic tests.
func (r *Router) WithClock(clock simulate.Clock) *Router {
	r.clock = clock
	return r
}

// WithDelay replaces the simulated processing delay profile.
func (r *Router) WithDelay(delay simulate.Profile) *Router {
	r.delay = delay
	return r
}

// WithGenerator replaces the span identifier source.
func (r *Router) WithGenerator(gen *id.TraceGenerator) *Router {
	r.gen = gen
	return r
}

// WithNotifier adds a queue event sink.
func (r *Router) WithNotifier(n Notifier) *Router {
	r.notifier = n
	return r
}

// WithMetrics adds metrics tracking to the router.
func (r *Router) WithMetrics(metrics *monitoring.Metrics) *Router {
	r.metrics = metrics
	return r
}

// DeclareQueues registers the queue set. Declaration happens once at
// startup; redeclaring a name is an error.
func (r *Router) DeclareQueues(configs []types.QueueConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cfg := range configs {
		if err := utils.ValidateQueueName(cfg.Name); err != nil {
			return err
		}
		if _, exists := r.queues[cfg.Name]; exists {
			return fmt.Errorf("%w: %s", ErrQueueAlreadyDeclared, cfg.Name)
		}
		r.queues[cfg.Name] = &queue{config: cfg}
		r.order = append(r.order, cfg.Name)
	}

	r.logger.Info("queues declared", zap.Int("count", len(configs)))
	return nil
}

// Publish appends a message to the named queue and schedules its
// processing. The supplied trace context is stamped onto the envelope
// unchanged; callers introducing a new causal step derive a child
// context first.
func (r *Router) Publish(topic string, payload map[string]interface{}, tc tracing.TraceContext) (id.MessageID, error) {
	if err := utils.ValidatePayload(payload); err != nil {
		return "", err
	}

	msg := &types.QueueMessage{
		ID:           id.NewMessageID().String(),
		Topic:        topic,
		TraceID:      tc.TraceID,
		SpanID:       tc.SpanID,
		ParentSpanID: tc.ParentSpanID,
		Payload:      types.ClonePayload(payload),
		Timestamp:    r.clock.Now(),
		Properties:   tc.Properties(),
	}

	r.mu.Lock()
	q, ok := r.queues[topic]
	if !ok {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUndeclaredQueue, topic)
	}
	q.messages = append(q.messages, msg)
	q.inflight++
	depth := len(q.messages)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordQueuePublish(topic, depth)
	}
	r.notify(types.QueueEvent{
		Type:      types.EventPublished,
		Queue:     topic,
		MessageID: msg.ID,
		TraceID:   msg.TraceID,
		SpanID:    msg.SpanID,
		Timestamp: msg.Timestamp,
	})

	r.clock.AfterFunc(r.delay.Sample(), func() {
		r.process(msg)
	})

	return id.MessageID(msg.ID), nil
}

// Subscribe registers a consumer for the named queue.
func (r *Router) Subscribe(topic string, fn Consumer) (id.ConsumerID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[topic]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUndeclaredQueue, topic)
	}

	reg := registration{id: id.NewConsumerID(), fn: fn}
	q.consumers = append(q.consumers, reg)
	return reg.id, nil
}

// Stats returns the retained message count per queue. Reads are
// idempotent: repeated calls with no intervening publish return
// identical counts.
func (r *Router) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]int, len(r.queues))
	for name, q := range r.queues {
		stats[name] = len(q.messages)
	}
	return stats
}

// Snapshot summarizes every queue in declaration order for the
// monitoring surface.
func (r *Router) Snapshot() []types.QueueSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]types.QueueSnapshot, 0, len(r.order))
	for _, name := range r.order {
		q := r.queues[name]
		snaps = append(snaps, types.QueueSnapshot{
			Name:         name,
			Policy:       q.config.Policy,
			MessageCount: len(q.messages),
			HasConsumer:  len(q.consumers) > 0,
			IsProcessing: q.inflight > 0,
		})
	}
	return snaps
}

// Messages returns copies of the retained envelopes for one queue, in
// publish order.
func (r *Router) Messages(topic string) ([]types.QueueMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queues[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndeclaredQueue, topic)
	}

	out := make([]types.QueueMessage, 0, len(q.messages))
	for _, msg := range q.messages {
		out = append(out, msg.Clone())
	}
	return out, nil
}

// process runs the post-delay half of a publish: deliver to consumers,
// then fan out if the message landed on the processing queue.
func (r *Router) process(msg *types.QueueMessage) {
	r.deliver(msg)

	if msg.Topic == QueueProcessing {
		r.fanOut(msg)
	}

	r.mu.Lock()
	if q, ok := r.queues[msg.Topic]; ok && q.inflight > 0 {
		q.inflight--
	}
	r.mu.Unlock()
}

// deliver hands the message to consumers per the queue's policy.
func (r *Router) deliver(msg *types.QueueMessage) {
	r.mu.RLock()
	q, ok := r.queues[msg.Topic]
	if !ok {
		r.mu.RUnlock()
		return
	}
	policy := q.config.Policy
	consumers := make([]registration, len(q.consumers))
	copy(consumers, q.consumers)
	r.mu.RUnlock()

	if len(consumers) == 0 {
		return
	}

	if policy == types.PolicyExclusive {
		consumers = consumers[:1]
	}

	for _, reg := range consumers {
		r.invoke(reg, msg)
	}
}

// invoke runs one consumer with containment: panics and errors are
// logged and never propagate past the delivery.
func (r *Router) invoke(reg registration, msg *types.QueueMessage) {
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("consumer panic: %v", rec)
			}
		}()
		return reg.fn(msg.Clone())
	}()

	if err != nil {
		r.containFailure(reg, msg, err)
		return
	}

	if r.metrics != nil {
		r.metrics.RecordQueueDelivery(msg.Topic, "success")
	}
	r.notify(types.QueueEvent{
		Type:      types.EventDelivered,
		Queue:     msg.Topic,
		MessageID: msg.ID,
		TraceID:   msg.TraceID,
		SpanID:    msg.SpanID,
		Timestamp: r.clock.Now(),
	})
}

// containFailure logs a consumer failure and forwards a copy of the
// message to the dead letter queue. Failures already on the dead letter
// queue stop there.
func (r *Router) containFailure(reg registration, msg *types.QueueMessage, err error) {
	r.logger.WithTrace(msg.TraceID, msg.SpanID).Warn("consumer failed",
		zap.String("queue", msg.Topic),
		zap.String("consumer", reg.id.String()),
		zap.String("message_id", msg.ID),
		zap.Error(err),
	)

	if r.metrics != nil {
		r.metrics.RecordHandlerError(msg.Topic)
		r.metrics.RecordQueueDelivery(msg.Topic, "error")
	}
	r.notify(types.QueueEvent{
		Type:      types.EventFailed,
		Queue:     msg.Topic,
		MessageID: msg.ID,
		TraceID:   msg.TraceID,
		SpanID:    msg.SpanID,
		Timestamp: r.clock.Now(),
	})

	if msg.Topic == QueueDeadletter {
		return
	}

	payload := types.ClonePayload(msg.Payload)
	payload["failed_queue"] = msg.Topic
	payload["failure"] = err.Error()

	forward := tracing.TraceContext{
		TraceID:      msg.TraceID,
		SpanID:       r.gen.SpanID(),
		ParentSpanID: msg.SpanID,
	}
	if _, pubErr := r.Publish(QueueDeadletter, payload, forward); pubErr != nil {
		r.logger.Warn("dead letter publish failed",
			zap.String("message_id", msg.ID),
			zap.Error(pubErr),
		)
	}
}

// fanOut forks a processing message into its three derived branches in
// the fixed order validation, notification, audit. Every branch carries
// the processing message's trace id, a freshly minted span id, and a
// parent span pointing at the processing message's span: one parent
// with three siblings, not a chain. Fan-out is unconditional; payload
// validity is judged by the validation consumer downstream.
func (r *Router) fanOut(msg *types.QueueMessage) {
	validation := types.ClonePayload(msg.Payload)
	validation["requires_validation"] = true

	notification := make(map[string]interface{})
	for _, key := range []string{"recipient", "amount", "currency"} {
		if v, ok := msg.Payload[key]; ok {
			notification[key] = v
		}
	}

	audit := types.ClonePayload(msg.Payload)
	audit["processed_at"] = r.clock.Now().Format(time.RFC3339Nano)
	if digest, err := r.digest.DigestPayload(msg.Payload); err == nil {
		audit["digest"] = digest
	}

	branches := []struct {
		topic   string
		payload map[string]interface{}
	}{
		{QueueValidation, validation},
		{QueueNotification, notification},
		{QueueAudit, audit},
	}

	for _, b := range branches {
		derived := tracing.TraceContext{
			TraceID:      msg.TraceID,
			SpanID:       r.gen.SpanID(),
			ParentSpanID: msg.SpanID,
		}
		if _, err := r.Publish(b.topic, b.payload, derived); err != nil {
			r.logger.Error("fan-out publish failed",
				zap.String("queue", b.topic),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	if r.metrics != nil {
		r.metrics.RecordFanOut()
	}
	r.notify(types.QueueEvent{
		Type:      types.EventRouted,
		Queue:     msg.Topic,
		MessageID: msg.ID,
		TraceID:   msg.TraceID,
		SpanID:    msg.SpanID,
		Timestamp: r.clock.Now(),
	})
}

func (r *Router) notify(event types.QueueEvent) {
	if r.notifier != nil {
		r.notifier.Notify(event)
	}
}
