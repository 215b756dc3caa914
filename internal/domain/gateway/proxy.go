package gateway

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/logging"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/monitoring"
	"github.com/CoinFlowHQ/coinflow/backend/internal/infrastructure/resilience"
	"github.com/CoinFlowHQ/coinflow/backend/internal/shared/types"
)

// hop-by-hop headers are connection-scoped and never relayed
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailers":            true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
}

// Proxy forwards matched requests to their upstream service. Upstream
// failures surface as 502 without retrying: payment traffic is not
// safely replayable.
type Proxy struct {
	logger  *logging.Logger
	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
}

// NewProxy creates a forwarding client with a circuit breaker guarding
// the upstream pool.
func NewProxy(logger *logging.Logger) *Proxy {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("User-Agent", "CoinFlow-Gateway/1.0")

	breaker := resilience.New("gateway-upstream", resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Proxy{
		logger:  logger,
		client:  client,
		limiter: rate.NewLimiter(rate.Inf, 0),
		breaker: breaker,
	}
}

// WithRateLimit caps forwarded requests per second.
func (p *Proxy) WithRateLimit(rps float64) *Proxy {
	if rps <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		p.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
	return p
}

// WithMetrics adds metrics tracking to the proxy.
func (p *Proxy) WithMetrics(metrics *monitoring.Metrics) *Proxy {
	p.metrics = metrics
	return p
}

// BreakerState exposes the upstream breaker state for the monitor
// surface.
func (p *Proxy) BreakerState() resilience.State {
	return p.breaker.State()
}

// Forward relays the request to the route's upstream and writes the
// upstream response back. Upstream 5xx responses are relayed as-is but
// count against the circuit breaker.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request, route types.Route, svc types.Service) {
	target := svc.URL + forwardPath(route, r.URL.Path)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	if err := p.limiter.Wait(r.Context()); err != nil {
		p.fail(w, r, svc, http.StatusBadGateway, fmt.Errorf("rate limit: %w", err))
		return
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			p.fail(w, r, svc, http.StatusBadGateway, fmt.Errorf("read request body: %w", err))
			return
		}
	}

	start := time.Now()
	var (
		status int
		header http.Header
		respBody []byte
	)
	err := p.breaker.Execute(func() error {
		req := p.client.R().
			SetContext(r.Context()).
			SetHeaderMultiValues(map[string][]string(r.Header))
		if len(body) > 0 {
			req.SetBody(body)
		}

		resp, execErr := req.Execute(r.Method, target)
		if execErr != nil {
			return execErr
		}

		status = resp.StatusCode()
		header = resp.Header()
		respBody = resp.Body()
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("upstream returned %d", status)
		}
		return nil
	})

	if p.metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		p.metrics.RecordServiceCall(svc.Name, r.Method, result, time.Since(start))
	}

	// status stays zero when the upstream was never reached: transport
	// failure, open breaker, or timeout
	if status == 0 {
		p.fail(w, r, svc, http.StatusBadGateway, err)
		return
	}

	if err != nil {
		p.logger.Warn("upstream error relayed",
			zap.String("service", svc.Name),
			zap.String("route", route.Name),
			zap.Int("status", status),
		)
	}

	for key, vals := range header {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(respBody)))
	w.WriteHeader(status)
	if _, err := w.Write(respBody); err != nil {
		p.logger.Warn("writing upstream response failed", zap.Error(err))
	}
}

func (p *Proxy) fail(w http.ResponseWriter, r *http.Request, svc types.Service, status int, err error) {
	p.logger.Warn("upstream unavailable",
		zap.String("service", svc.Name),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	if p.metrics != nil {
		p.metrics.RecordServiceError(svc.Name, r.Method, "upstream_unavailable")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":"upstream unavailable","service":%q}`, svc.Name)
}

// forwardPath computes the upstream path, honoring strip_path by
// removing the longest static prefix of the route's patterns.
func forwardPath(route types.Route, requestPath string) string {
	if !route.StripPath {
		return requestPath
	}

	best := ""
	for _, pattern := range route.Paths {
		prefix := staticPrefix(pattern)
		if strings.HasPrefix(requestPath, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}

	stripped := strings.TrimPrefix(requestPath, best)
	if !strings.HasPrefix(stripped, "/") {
		stripped = "/" + stripped
	}
	return stripped
}

// staticPrefix returns the pattern text before the first glob
// metacharacter, cut back to a path boundary.
func staticPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?[{"); i >= 0 {
		pattern = pattern[:i]
		if j := strings.LastIndex(pattern, "/"); j >= 0 {
			pattern = pattern[:j]
		}
	}
	return strings.TrimSuffix(pattern, "/")
}
