package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/broker"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/gateway"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/payments"
	"github.com/CoinFlowHQ/coinflow/backend/internal/domain/pubsub"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	logger   *logging.Logger
	store    *gateway.Store
	proxy    *gateway.Proxy
	router   *broker.Router
	client   *pubsub.Client
	pipeline *payments.Pipeline
	metrics  *monitoring.Metrics
	tracked  *HandlerMetrics
}

// NewHandlers creates a new handler set
func NewHandlers(
	logger *logging.Logger,
	store *gateway.Store,
	proxy *gateway.Proxy,
	router *broker.Router,
	client *pubsub.Client,
	pipeline *payments.Pipeline,
	metrics *monitoring.Metrics,
) *Handlers {
	return &Handlers{
		logger:   logger,
		store:    store,
		proxy:    proxy,
		router:   router,
		client:   client,
		pipeline: pipeline,
		metrics:  metrics,
		tracked:  NewHandlerMetrics(metrics),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "CoinFlow Gateway (Go)",
		"version": "0.1.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"gateway": h.store.Stats(),
		"queues":  h.router.Stats(),
		"pubsub":  h.client.Stats(),
	})
}

// SubmitPayment validates a payment and produces it into the
// processing queue. The response is 202: processing is asynchronous.
func (h *Handlers) SubmitPayment(c *gin.Context) {
	var req types.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defer h.tracked.TrackPaymentOperation("submit")()

	result, err := h.pipeline.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidPayment) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"payment":  result,
	})
}
