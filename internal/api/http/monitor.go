package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// QueueOverview returns the broker's queue snapshot in declaration order
func (h *Handlers) QueueOverview(c *gin.Context) {
	defer h.tracked.TrackQueueOperation("snapshot")()

	c.JSON(http.StatusOK, gin.H{
		"queues": h.router.Snapshot(),
		"depths": h.router.Stats(),
	})
}

// QueueMessages returns the retained messages of one queue
func (h *Handlers) QueueMessages(c *gin.Context) {
	name := c.Param("name")

	msgs, err := h.router.Messages(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queue":    name,
		"count":    len(msgs),
		"messages": msgs,
	})
}

// PubSubOverview returns the pub/sub client's connection state and
// handler counts
func (h *Handlers) PubSubOverview(c *gin.Context) {
	c.JSON(http.StatusOK, h.client.Stats())
}

// AuditTrail lists the recorded audit entries in arrival order
func (h *Handlers) AuditTrail(c *gin.Context) {
	entries := h.pipeline.Trail().Entries()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// Overview aggregates the operational state of every component into one
// monitoring snapshot
func (h *Handlers) Overview(c *gin.Context) {
	overview := gin.H{
		"timestamp": time.Now(),
		"gateway":   h.store.Stats(),
		"queues":    h.router.Stats(),
		"pubsub":    h.client.Stats(),
		"audit":     gin.H{"entries": h.pipeline.Trail().Len()},
		"upstream":  gin.H{"breaker": h.proxy.BreakerState().String()},
	}

	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		overview["summary"] = gin.H{
			"total_requests":     snap.TotalRequests,
			"total_errors":       snap.TotalErrors,
			"messages_published": snap.MessagesPublished,
			"active_connections": snap.ActiveConnections,
			"avg_latency_ms":     float64(h.metrics.AvgRequestDuration().Microseconds()) / 1000.0,
			"uptime_seconds":     h.metrics.UptimeSeconds(),
		}
	}

	c.JSON(http.StatusOK, overview)
}
