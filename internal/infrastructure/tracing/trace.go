package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/id"
)

// SpanKind classifies the role a span plays in its trace.
type SpanKind string

const (
	KindServer   SpanKind = "server"
	KindClient   SpanKind = "client"
	KindProducer SpanKind = "producer"
	KindConsumer SpanKind = "consumer"
	KindInternal SpanKind = "internal"
)

// Span represents a single timed operation in a trace.
type Span struct {
	TraceID    string
	SpanID     string
	ParentID   string
	Name       string
	Kind       SpanKind
	Service    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Attrs      map[string]string
	Error      error
	StatusCode int
}

// Tracer manages span creation and export for one service.
type Tracer struct {
	service  string
	logger   *zap.Logger
	gen      *id.TraceGenerator
	exporter Exporter
	metrics  *monitoring.Metrics
	spans    chan *Span
}

// New creates a tracer that exports finished spans to structured logs.
// Swap the exporter or generator before the first span is submitted.
func New(service string, logger *zap.Logger) *Tracer {
	t := &Tracer{
		service:  service,
		logger:   logger,
		gen:      id.DefaultTrace(),
		exporter: NewLogExporter(logger),
		spans:    make(chan *Span, 1000),
	}

	// Start span collector
	go t.collectSpans()

	return t
}

// WithExporter replaces the span sink.
func (t *Tracer) WithExporter(e Exporter) *Tracer {
	t.exporter = e
	return t
}

// WithGenerator replaces the identifier source, for deterministic tests.
func (t *Tracer) WithGenerator(g *id.TraceGenerator) *Tracer {
	t.gen = g
	return t
}

// WithMetrics adds metrics tracking to the tracer.
func (t *Tracer) WithMetrics(metrics *monitoring.Metrics) *Tracer {
	t.metrics = metrics
	return t
}

// StartSpan opens a span under the context's trace, or a new root when
// the context carries none. The returned context holds the span's
// identity for downstream calls.
func (t *Tracer) StartSpan(ctx context.Context, name string, kind SpanKind) (*Span, context.Context) {
	span := &Span{
		Name:      name,
		Kind:      kind,
		Service:   t.service,
		StartTime: time.Now(),
		Attrs:     make(map[string]string),
	}

	if parent, ok := FromContext(ctx); ok {
		span.TraceID = parent.TraceID
		span.SpanID = t.gen.SpanID()
		span.ParentID = parent.SpanID
	} else {
		span.TraceID = t.gen.TraceID()
		span.SpanID = t.gen.SpanID()
	}

	if t.metrics != nil {
		t.metrics.RecordSpanCreated()
	}
	return span, ContextWith(ctx, span.Context())
}

// Context returns the span's identity for propagation.
func (s *Span) Context() TraceContext {
	return TraceContext{
		TraceID:      s.TraceID,
		SpanID:       s.SpanID,
		ParentSpanID: s.ParentID,
	}
}

// Finish marks the span as complete.
func (s *Span) Finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetAttr records a key/value attribute on the span.
func (s *Span) SetAttr(key, value string) {
	s.Attrs[key] = value
}

// SetError records a failure in the span.
func (s *Span) SetError(err error) {
	s.Error = err
	if s.StatusCode == 0 {
		s.StatusCode = 500
	}
}

// SetStatus records the result code the span completed with.
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// collectSpans drains the buffer and hands spans to the exporter.
func (t *Tracer) collectSpans() {
	for span := range t.spans {
		t.export(span)
	}
}

// export ships one span. Export failures are logged and swallowed:
// tracing never fails the operation it describes.
func (t *Tracer) export(span *Span) {
	err := t.exporter.Export(span)
	if err != nil {
		t.logger.Warn("span export failed",
			zap.String("trace_id", span.TraceID),
			zap.String("span_id", span.SpanID),
			zap.Error(err),
		)
	}

	if t.metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		t.metrics.RecordSpanExported(result)
	}
}

// Submit queues a finished span for export, dropping it when the
// buffer is full.
func (t *Tracer) Submit(span *Span) {
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", span.TraceID),
			zap.String("span_id", span.SpanID),
		)
	}
}
