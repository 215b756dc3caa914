/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the payment
gateway, tracking HTTP requests, queue traffic, pub/sub deliveries, span
export, and payment pipeline outcomes.

# Features

- HTTP request metrics (latency, throughput, size)
- Queue metrics (depth, published, delivered, fan-out routing)
- Pub/sub metrics (publishes, handler deliveries, handler counts)
- Span pipeline metrics (created, exported)
- Payment pipeline metrics (submitted, validation outcomes)
- Gateway configuration gauges (services, routes, plugins)
- WebSocket monitor connection metrics

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record domain metrics
	metrics.RecordQueuePublish("payment.processing", depth)
	metrics.RecordFanOut()

	// Time operations
	timer := monitoring.NewTimer(metrics, "payments", "submit")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
