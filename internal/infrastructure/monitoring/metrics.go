package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Queue metrics
	QueueDepth        *prometheus.GaugeVec
	MessagesPublished *prometheus.CounterVec
	MessagesDelivered *prometheus.CounterVec
	MessagesRouted    prometheus.Counter
	HandlerErrors     *prometheus.CounterVec

	// Pub/sub metrics
	PubSubPublished *prometheus.CounterVec
	PubSubDelivered *prometheus.CounterVec
	PubSubHandlers  *prometheus.GaugeVec

	// Tracing metrics
	SpansCreated  prometheus.Counter
	SpansExported *prometheus.CounterVec

	// Payment metrics
	PaymentsSubmitted prometheus.Counter
	PaymentsValidated *prometheus.CounterVec

	// Gateway configuration metrics
	ServicesConfigured prometheus.Gauge
	RoutesConfigured   prometheus.Gauge
	PluginsConfigured  prometheus.Gauge

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	ServiceErrors   *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64
	TotalErrors       int64
	MessagesPublished int64
	ActiveConnections int64
	TotalDuration     float64 // sum of all request durations
	RequestCount      int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinflow_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinflow_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinflow_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Queue metrics
		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinflow_queue_depth",
				Help: "Number of messages retained per queue",
			},
			[]string{"queue"},
		),
		MessagesPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_queue_published_total",
				Help: "Total number of messages published per queue",
			},
			[]string{"queue"},
		),
		MessagesDelivered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_queue_delivered_total",
				Help: "Total number of messages delivered to consumers",
			},
			[]string{"queue", "result"},
		),
		MessagesRouted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "coinflow_queue_routed_total",
				Help: "Total number of processing messages fanned out",
			},
		),
		HandlerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_handler_errors_total",
				Help: "Total number of contained consumer errors",
			},
			[]string{"queue"},
		),

		// Pub/sub metrics
		PubSubPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_pubsub_published_total",
				Help: "Total number of pub/sub messages published",
			},
			[]string{"queue"},
		),
		PubSubDelivered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_pubsub_delivered_total",
				Help: "Total number of pub/sub handler deliveries",
			},
			[]string{"queue", "result"},
		),
		PubSubHandlers: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinflow_pubsub_handlers",
				Help: "Number of handlers subscribed per queue",
			},
			[]string{"queue"},
		),

		// Tracing metrics
		SpansCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "coinflow_spans_created_total",
				Help: "Total number of spans opened by the gateway",
			},
		),
		SpansExported: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_spans_exported_total",
				Help: "Total number of span export attempts",
			},
			[]string{"result"},
		),

		// Payment metrics
		PaymentsSubmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "coinflow_payments_submitted_total",
				Help: "Total number of payments submitted",
			},
		),
		PaymentsValidated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_payments_validated_total",
				Help: "Total number of payment validation outcomes",
			},
			[]string{"status"},
		),

		// Gateway configuration metrics
		ServicesConfigured: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "coinflow_gateway_services",
				Help: "Number of configured upstream services",
			},
		),
		RoutesConfigured: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "coinflow_gateway_routes",
				Help: "Number of configured routes",
			},
		),
		PluginsConfigured: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "coinflow_gateway_plugins",
				Help: "Number of configured plugins",
			},
		),

		// Service metrics
		ServiceCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_service_calls_total",
				Help: "Total number of internal service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinflow_service_duration_seconds",
				Help:    "Internal service call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method"},
		),
		ServiceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_service_errors_total",
				Help: "Total number of internal service errors",
			},
			[]string{"service", "method", "error_type"},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "coinflow_ws_connections",
				Help: "Number of active WebSocket monitor connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinflow_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "coinflow_uptime_seconds",
				Help: "Gateway uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordQueuePublish records a message appended to a queue
func (m *Metrics) RecordQueuePublish(queue string, depth int) {
	m.MessagesPublished.WithLabelValues(queue).Inc()
	m.QueueDepth.WithLabelValues(queue).Set(float64(depth))

	m.mu.Lock()
	m.snapshot.MessagesPublished++
	m.mu.Unlock()
}

// RecordQueueDelivery records a delivery attempt to a consumer
func (m *Metrics) RecordQueueDelivery(queue, result string) {
	m.MessagesDelivered.WithLabelValues(queue, result).Inc()
}

// RecordFanOut records one processing message routed to its branches
func (m *Metrics) RecordFanOut() {
	m.MessagesRouted.Inc()
}

// RecordHandlerError records a contained consumer failure
func (m *Metrics) RecordHandlerError(queue string) {
	m.HandlerErrors.WithLabelValues(queue).Inc()
}

// RecordPubSubPublish records a pub/sub publish
func (m *Metrics) RecordPubSubPublish(queue string) {
	m.PubSubPublished.WithLabelValues(queue).Inc()
}

// RecordPubSubDelivery records a pub/sub handler invocation
func (m *Metrics) RecordPubSubDelivery(queue, result string) {
	m.PubSubDelivered.WithLabelValues(queue, result).Inc()
}

// SetPubSubHandlers sets the handler count for a queue
func (m *Metrics) SetPubSubHandlers(queue string, count int) {
	m.PubSubHandlers.WithLabelValues(queue).Set(float64(count))
}

// RecordSpanCreated records a span opened at the gateway
func (m *Metrics) RecordSpanCreated() {
	m.SpansCreated.Inc()
}

// RecordSpanExported records a span export attempt
func (m *Metrics) RecordSpanExported(result string) {
	m.SpansExported.WithLabelValues(result).Inc()
}

// RecordPaymentSubmitted records a payment entering the pipeline
func (m *Metrics) RecordPaymentSubmitted() {
	m.PaymentsSubmitted.Inc()
}

// RecordPaymentValidated records a validation outcome
func (m *Metrics) RecordPaymentValidated(status string) {
	m.PaymentsValidated.WithLabelValues(status).Inc()
}

// SetGatewayConfig sets the configured object gauges
func (m *Metrics) SetGatewayConfig(services, routes, plugins int) {
	m.ServicesConfigured.Set(float64(services))
	m.RoutesConfigured.Set(float64(routes))
	m.PluginsConfigured.Set(float64(plugins))
}

// RecordServiceCall records an internal service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordServiceError records an internal service error
func (m *Metrics) RecordServiceError(service, method, errorType string) {
	m.ServiceErrors.WithLabelValues(service, method, errorType).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()

	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()

	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
