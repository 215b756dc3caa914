package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestCORSFromConfigOverrides(t *testing.T) {
	cfg := CORSFromConfig(map[string]interface{}{
		"allow_origins":     []interface{}{"https://app.coinflow.dev"},
		"allow_credentials": false,
		"max_age_seconds":   600, // YAML hands integers over as int
	})

	assert.Equal(t, []string{"https://app.coinflow.dev"}, cfg.AllowOrigins)
	assert.False(t, cfg.AllowCredentials)
	assert.Equal(t, 10*time.Minute, cfg.MaxAge)
	assert.Contains(t, cfg.AllowHeaders, "traceparent", "defaults survive the overlay")
	assert.Contains(t, cfg.ExposeHeaders, "X-Request-ID")
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS(CORSFromConfig(map[string]interface{}{
		"allow_origins": []interface{}{"https://app.coinflow.dev"},
	})))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.coinflow.dev")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.coinflow.dev", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitFromConfig(t *testing.T) {
	cfg := RateLimitFromConfig(map[string]interface{}{
		"requests_per_second": float64(5), // JSON decodes numbers as float64
		"burst":               int64(7),   // TOML decodes integers as int64
	})
	assert.Equal(t, 5, cfg.RequestsPerSecond)
	assert.Equal(t, 7, cfg.Burst)

	assert.Equal(t, DefaultRateLimitConfig(), RateLimitFromConfig(nil))
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	r := newEngine(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitIsPerClient(t *testing.T) {
	r := newEngine(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.RemoteAddr = "203.0.113.7:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	second := httptest.NewRequest(http.MethodGet, "/ping", nil)
	second.RemoteAddr = "198.51.100.9:1234"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, second)
	assert.Equal(t, http.StatusOK, w.Code, "a different client has its own budget")
}

func TestGlobalRateLimit(t *testing.T) {
	r := newEngine(GlobalRateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
