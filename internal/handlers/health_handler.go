package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusNotConfigured = "not_configured"
)

// Pinger is any dependency the health checks can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	redis       Pinger
	version     string
	environment string
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Services    map[string]string `json:"services"`
	Uptime      string            `json:"uptime"`
}

type ReadinessStatus struct {
	Ready    bool              `json:"ready"`
	Services map[string]string `json:"services"`
}

// NewHealthHandler creates the health endpoints. redis may be nil when the
// public cache is disabled.
func NewHealthHandler(db Pinger, redis Pinger, version, environment string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redis:       redis,
		version:     version,
		environment: environment,
	}
}

// Health reports every dependency. Redis only degrades the status, since the
// service keeps working without its cache.
func (h *HealthHandler) Health(c *gin.Context) {
	services := map[string]string{
		"database": h.check(c.Request.Context(), h.db, 5*time.Second),
		"redis":    h.check(c.Request.Context(), h.redis, 2*time.Second),
	}

	status := statusHealthy
	for _, serviceStatus := range services {
		if serviceStatus == statusUnhealthy {
			status = "degraded"
			break
		}
	}

	statusCode := http.StatusOK
	if services["database"] == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthStatus{
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Version:     h.version,
		Environment: h.environment,
		Services:    services,
		Uptime:      time.Since(startTime).String(),
	})
}

// Readiness only depends on the database
func (h *HealthHandler) Readiness(c *gin.Context) {
	services := map[string]string{
		"database": h.check(c.Request.Context(), h.db, 2*time.Second),
	}

	ready := services["database"] == statusHealthy
	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessStatus{
		Ready:    ready,
		Services: services,
	})
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(startTime).String(),
	})
}

func (h *HealthHandler) check(ctx context.Context, p Pinger, timeout time.Duration) string {
	if p == nil {
		return statusNotConfigured
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Ping(pingCtx); err != nil {
		return statusUnhealthy
	}
	return statusHealthy
}

var startTime = time.Now()
