package tracing

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/resilience"
)

// Exporter ships finished spans to a tracing backend.
type Exporter interface {
	Export(span *Span) error
}

// LogExporter writes spans to the structured log. It is the default
// sink and never fails.
type LogExporter struct {
	logger *zap.Logger
}

// NewLogExporter creates a log-backed span sink.
func NewLogExporter(logger *zap.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// Export logs the span with its causal identity.
func (e *LogExporter) Export(span *Span) error {
	fields := []zap.Field{
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.String("operation", span.Name),
		zap.String("kind", string(span.Kind)),
		zap.String("service", span.Service),
		zap.Duration("duration", span.Duration),
	}

	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", span.ParentID))
	}

	if span.Error != nil {
		fields = append(fields, zap.Error(span.Error))
		e.logger.Error("span completed with error", fields...)
	} else {
		e.logger.Info("span completed", fields...)
	}

	return nil
}

// spanEnvelope is the collector wire form of a finished span.
type spanEnvelope struct {
	TraceID      string            `json:"trace_id"`
	SpanID       string            `json:"span_id"`
	ParentSpanID string            `json:"parent_span_id,omitempty"`
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	Service      string            `json:"service"`
	StartTime    time.Time         `json:"start_time"`
	DurationUS   int64             `json:"duration_us"`
	Status       int               `json:"status"`
	Error        string            `json:"error,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// CollectorExporter posts spans to an HTTP span collector. Requests
// retry with backoff, ship gzip-compressed bodies, and pass through a
// circuit breaker so a dead collector cannot stall the span pipeline.
type CollectorExporter struct {
	url     string
	client  *retryablehttp.Client
	breaker *resilience.Breaker
}

// NewCollectorExporter builds an exporter targeting the given URL.
func NewCollectorExporter(url string) *CollectorExporter {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = 5 * time.Second
	retryClient.Logger = nil // Disable logging

	breaker := resilience.New("span-collector", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &CollectorExporter{
		url:     url,
		client:  retryClient,
		breaker: breaker,
	}
}

// Export posts one span. Errors are returned for the caller to swallow;
// they never block beyond the client timeout.
func (e *CollectorExporter) Export(span *Span) error {
	env := spanEnvelope{
		TraceID:      span.TraceID,
		SpanID:       span.SpanID,
		ParentSpanID: span.ParentID,
		Name:         span.Name,
		Kind:         string(span.Kind),
		Service:      span.Service,
		StartTime:    span.StartTime,
		DurationUS:   span.Duration.Microseconds(),
		Status:       span.StatusCode,
		Attributes:   span.Attrs,
	}
	if span.Error != nil {
		env.Error = span.Error.Error()
	}

	body, err := sonic.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode span: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		return fmt.Errorf("compress span: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress span: %w", err)
	}

	return e.breaker.Execute(func() error {
		req, err := retryablehttp.NewRequest(http.MethodPost, e.url, buf.Bytes())
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "gzip")

		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("collector returned %d", resp.StatusCode)
		}
		return nil
	})
}
