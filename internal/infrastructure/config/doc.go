// Package config provides 12-factor configuration management for the
// CoinFlow backend.
//
// Configuration is loaded from environment variables with sensible
// defaults. CLI flags can override environment variables for
// development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Gateway: Declarative config path, simulated latency, upstream cap
//   - Tracing: Service name and optional span collector
//   - Broker, PubSub: Simulated processing and delivery delays
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, GATEWAY_CONFIG, GATEWAY_LATENCY_MIN, GATEWAY_LATENCY_MAX
//   - TRACE_SERVICE, TRACE_COLLECTOR_URL
//   - BROKER_DELAY_MIN, BROKER_DELAY_MAX
//   - PUBSUB_CONNECT_DELAY, PUBSUB_DELIVERY_MIN, PUBSUB_DELIVERY_MAX
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
