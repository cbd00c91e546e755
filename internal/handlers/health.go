package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/deedchain/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout bounds each dependency ping
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is a dependency whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	deps       map[string]Pinger
	components map[string]string
	startTime  time.Time
	env        string
}

// NewHealthHandler creates a HealthHandler. deps are pinged by Ready;
// components describe the wiring reported by Info (for example "store": "postgres").
func NewHealthHandler(env string, deps map[string]Pinger, components map[string]string) *HealthHandler {
	return &HealthHandler{
		deps:       deps,
		components: components,
		startTime:  time.Now(),
		env:        env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse reports overall readiness and the state of each dependency.
type ReadyResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Uptime      string            `json:"uptime"`
	Components  map[string]string `json:"components,omitempty"`
}

// Health handles GET /health. It is a liveness check and never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready handles GET /health/ready. It returns 503 if any dependency fails its ping.
func (h *HealthHandler) Ready(c *gin.Context) {
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := ReadyResponse{Status: "ready", Dependencies: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.ping(c, name); err != nil {
			resp.Dependencies[name] = "disconnected"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[name] = "connected"
	}

	c.JSON(status, resp)
}

func (h *HealthHandler) ping(c *gin.Context, name string) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	err := h.deps[name].Ping(ctx)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Dependency health check failed", err, map[string]interface{}{
				"dependency": name,
				"timeout":    HealthCheckTimeout.String(),
			})
		}
	}
	return err
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
		Components:  h.components,
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
