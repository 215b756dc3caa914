package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the gateway defaults. Trace carriers are
// allowed in, and the diagnostic headers the gateway stamps on every
// response are exposed back to browser callers.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"}, // Configure specific origins in production
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Accept",
			"Origin",
			"Cache-Control",
			"X-Requested-With",
			"X-Trace-ID",
			"X-Span-ID",
			"traceparent",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Trace-ID",
			"X-Span-ID",
			"X-Gateway-Proxy-Latency",
			"X-Gateway-Upstream-Latency",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORSFromConfig overlays plugin settings onto the defaults. Only keys
// present in the map override.
func CORSFromConfig(cfg map[string]interface{}) CORSConfig {
	out := DefaultCORSConfig()
	if origins := configStrings(cfg, "allow_origins"); len(origins) > 0 {
		out.AllowOrigins = origins
	}
	if methods := configStrings(cfg, "allow_methods"); len(methods) > 0 {
		out.AllowMethods = methods
	}
	if v, ok := cfg["allow_credentials"].(bool); ok {
		out.AllowCredentials = v
	}
	if secs, ok := configFloat(cfg, "max_age_seconds"); ok && secs > 0 {
		out.MaxAge = time.Duration(secs) * time.Second
	}
	return out
}

// CORS creates a CORS middleware with the provided configuration.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
