package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wonny/stockmarket/internal/api/response"
	"github.com/wonny/stockmarket/internal/infra/database"
	"github.com/wonny/stockmarket/internal/service/notify"
)

// HealthChecker reports storage health
type HealthChecker interface {
	Health(ctx context.Context) *database.HealthStatus
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store     HealthChecker
	hub       *notify.Hub
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store HealthChecker, hub *notify.Hub, version string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		hub:       hub,
		startTime: time.Now(),
		version:   version,
	}
}

// SimpleHealthResponse represents a simple health check response
type SimpleHealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse represents a readiness check response
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// DetailedHealthResponse represents detailed health information
type DetailedHealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Timestamp     time.Time              `json:"timestamp"`
	Storage       *database.HealthStatus `json:"storage"`
	Notifications *notify.Stats          `json:"notifications,omitempty"`
}

// Health returns simple liveness check
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, SimpleHealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// Ready reports whether the stock API can serve traffic: the storage
// backend answers and the notification hub is not shutting down.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	storage := h.store.Health(c.Request.Context())

	resp := ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Checks:    map[string]string{"storage": storage.Status},
	}
	statusCode := http.StatusOK

	if storage.Status == "unhealthy" {
		resp.Status = "not_ready"
		resp.Message = storage.Error
		statusCode = http.StatusServiceUnavailable
	}

	if h.hub != nil {
		resp.Checks["notifications"] = "ok"
		if h.hub.Stats().Closed {
			resp.Checks["notifications"] = "closed"
			resp.Status = "not_ready"
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, resp)
}

// Detailed returns storage and notification details
// GET /api/health/detailed
func (h *HealthHandler) Detailed(c *gin.Context) {
	storage := h.store.Health(c.Request.Context())

	resp := DetailedHealthResponse{
		Status:        storage.Status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now(),
		Storage:       storage,
	}
	if h.hub != nil {
		stats := h.hub.Stats()
		resp.Notifications = &stats
	}

	response.Success(c, resp)
}
