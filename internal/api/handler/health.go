package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger verifies a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	queue Pinger
}

// NewHealthHandler creates a new health handler. A nil queue skips the
// dependency check.
func NewHealthHandler(queue Pinger) *HealthHandler {
	return &HealthHandler{queue: queue}
}

// Health returns the health status of the service and its queue backend.
func (h *HealthHandler) Health(c *gin.Context) {
	deps := gin.H{}
	healthy := true

	if h.queue != nil {
		if err := h.queue.Ping(c.Request.Context()); err != nil {
			deps["queue"] = "unavailable"
			healthy = false
		} else {
			deps["queue"] = "ok"
		}
	}

	status := http.StatusOK
	body := gin.H{"status": "ok", "dependencies": deps}
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
