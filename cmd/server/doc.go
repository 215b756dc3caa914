// Package main is the entry point for the CoinFlow gateway server.
//
// The binary hosts three cooperating surfaces on one port:
//
//	Clients → Gateway (routing, tracing) → Upstream services
//	        → Payment pipeline → Queue router → Pub/Sub broadcast
//
// The server provides:
//   - Payment submission API with trace propagation
//   - Gateway admin API for services, routes and plugins
//   - Queue and audit monitoring, including a WebSocket event stream
//   - Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -gateway-config configs/gateway.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
