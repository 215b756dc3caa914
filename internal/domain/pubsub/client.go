package pubsub

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

// State is the client's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

var (
	// ErrConnectionNotReady flags a publish attempted before the
	// connect delay elapsed. Publishes never queue silently.
	ErrConnectionNotReady = errors.New("pubsub connection not ready")

	// ErrUndeclaredQueue flags a publish or subscribe outside the
	// declared queue set.
	ErrUndeclaredQueue = errors.New("queue not declared")
)

// Handler receives broadcast messages. Returned errors are contained:
// logged, counted, and never surfaced to the publisher or to other
// handlers on the same queue.
type Handler func(msg types.QueueMessage) error

type subscription struct {
	id id.SubscriptionID
	fn Handler
}

type topic struct {
	config   types.QueueConfig
	handlers []subscription
}

// Stats reports the connection state and the registered handler count
// per queue. Reads are idempotent.
type Stats struct {
	State    State          `json:"state"`
	Handlers map[string]int `json:"handlers"`
}

// Client is the event-stream side of the messaging layer. Connecting
// is asynchronous; publishes before the connection is ready fail
// immediately. Deliveries run after a bounded random latency and reach
// every handler subscribed to the queue, sequentially, in subscription
// order.
type Client struct {
	logger       *logging.Logger
	clock        simulate.Clock
	connectDelay time.Duration
	delivery     simulate.Profile
	metrics      *monitoring.Metrics

	mu     sync.RWMutex
	state  State
	ready  chan struct{}
	topics map[string]*topic
	order  []string
}

// New creates a disconnected Client with a system clock.
func New(logger *logging.Logger) *Client {
	return &Client{
		logger:       logger,
		clock:        simulate.System(),
		connectDelay: 100 * time.Millisecond,
		delivery:     simulate.NewUniform(5*time.Millisecond, 30*time.Millisecond),
		state:        StateDisconnected,
		topics:       make(map[string]*topic),
	}
}

// WithClock replaces the scheduler, for deterministic tests.
func (c *Client) WithClock(clock simulate.Clock) *Client {
	c.clock = clock
	return c
}

// WithConnectDelay replaces the simulated connection establishment
// delay.
func (c *Client) WithConnectDelay(d time.Duration) *Client {
	c.connectDelay = d
	return c
}

// WithDelivery replaces the simulated delivery latency profile.
func (c *Client) WithDelivery(delivery simulate.Profile) *Client {
	c.delivery = delivery
	return c
}

// WithMetrics adds metrics tracking to the client.
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// DeclareQueues registers the queue set. Queues are never created on
// demand by publish or subscribe.
func (c *Client) DeclareQueues(configs []types.QueueConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cfg := range configs {
		if err := utils.ValidateQueueName(cfg.Name); err != nil {
			return err
		}
		if _, exists := c.topics[cfg.Name]; exists {
			return fmt.Errorf("queue already declared: %s", cfg.Name)
		}
		c.topics[cfg.Name] = &topic{config: cfg}
		c.order = append(c.order, cfg.Name)
	}
	return nil
}

// Connect starts the asynchronous connection. The returned channel
// closes once the client reaches the connected state. Calling Connect
// again while connecting or connected returns the same channel.
func (c *Client) Connect() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready != nil {
		return c.ready
	}

	c.state = StateConnecting
	c.ready = make(chan struct{})
	ready := c.ready

	c.clock.AfterFunc(c.connectDelay, func() {
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()
		close(ready)
		c.logger.Info("pubsub connected")
	})

	return ready
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Publish broadcasts a message to the named queue after a simulated
// delivery latency. The supplied trace context is stamped onto the
// envelope unchanged. Publishing before the connection is ready fails
// immediately with ErrConnectionNotReady.
func (c *Client) Publish(queue string, payload map[string]interface{}, tc tracing.TraceContext) (id.MessageID, error) {
	c.mu.RLock()
	state := c.state
	_, declared := c.topics[queue]
	c.mu.RUnlock()

	if state != StateConnected {
		return "", fmt.Errorf("%w: state is %s", ErrConnectionNotReady, state)
	}
	if !declared {
		return "", fmt.Errorf("%w: %s", ErrUndeclaredQueue, queue)
	}
	if err := utils.ValidatePayload(payload); err != nil {
		return "", err
	}

	msg := types.QueueMessage{
		ID:           id.NewMessageID().String(),
		Topic:        queue,
		TraceID:      tc.TraceID,
		SpanID:       tc.SpanID,
		ParentSpanID: tc.ParentSpanID,
		Payload:      types.ClonePayload(payload),
		Timestamp:    c.clock.Now(),
		Properties:   tc.Properties(),
	}

	if c.metrics != nil {
		c.metrics.RecordPubSubPublish(queue)
	}

	c.clock.AfterFunc(c.delivery.Sample(), func() {
		c.deliver(msg)
	})

	return id.MessageID(msg.ID), nil
}

// Subscribe registers a handler for the named queue. Subscribing does
// not require a connection; handlers registered early receive messages
// once publishing begins.
func (c *Client) Subscribe(queue string, fn Handler) (id.SubscriptionID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.topics[queue]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUndeclaredQueue, queue)
	}

	sub := subscription{id: id.NewSubscriptionID(), fn: fn}
	t.handlers = append(t.handlers, sub)

	if c.metrics != nil {
		c.metrics.SetPubSubHandlers(queue, len(t.handlers))
	}
	return sub.id, nil
}

// Stats returns the connection state and handler counts. The handler
// map is freshly built per call.
func (c *Client) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	handlers := make(map[string]int, len(c.topics))
	for name, t := range c.topics {
		handlers[name] = len(t.handlers)
	}
	return Stats{State: c.state, Handlers: handlers}
}

// deliver hands the message to the handlers subscribed at delivery
// time, honoring the queue's declared policy. Handler failures are
// contained so one bad subscriber never starves the rest.
func (c *Client) deliver(msg types.QueueMessage) {
	c.mu.RLock()
	t, ok := c.topics[msg.Topic]
	if !ok {
		c.mu.RUnlock()
		return
	}
	policy := t.config.Policy
	handlers := make([]subscription, len(t.handlers))
	copy(handlers, t.handlers)
	c.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	if policy == types.PolicyExclusive {
		handlers = handlers[:1]
	}

	for _, sub := range handlers {
		c.invoke(sub, msg)
	}
}

func (c *Client) invoke(sub subscription, msg types.QueueMessage) {
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("handler panic: %v", rec)
			}
		}()
		return sub.fn(msg.Clone())
	}()

	if err != nil {
		c.logger.WithTrace(msg.TraceID, msg.SpanID).Warn("handler failed",
			zap.String("queue", msg.Topic),
			zap.String("subscription", sub.id.String()),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordHandlerError(msg.Topic)
			c.metrics.RecordPubSubDelivery(msg.Topic, "error")
		}
		return
	}

	if c.metrics != nil {
		c.metrics.RecordPubSubDelivery(msg.Topic, "success")
	}
}
