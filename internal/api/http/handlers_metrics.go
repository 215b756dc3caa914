package http

import (
	"time"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackAdminOperation tracks gateway configuration operations
func (hm *HandlerMetrics) TrackAdminOperation(operation string) func() {
	return hm.track("gateway_admin", operation)
}

// TrackQueueOperation tracks broker monitoring operations
func (hm *HandlerMetrics) TrackQueueOperation(operation string) func() {
	return hm.track("broker", operation)
}

// TrackPaymentOperation tracks payment pipeline operations
func (hm *HandlerMetrics) TrackPaymentOperation(operation string) func() {
	return hm.track("payments", operation)
}

func (hm *HandlerMetrics) track(service, operation string) func() {
	if hm == nil || hm.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		hm.metrics.RecordServiceCall(service, operation, "success", time.Since(start))
	}
}
