package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// HealthOption customizes the health handler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck registers a named dependency probe for the readiness
// endpoint.
func WithReadinessCheck(name string, check func(ctx context.Context) error) HealthOption {
	return func(h *HealthHandler) {
		if name == "" || check == nil {
			return
		}
		h.checks = append(h.checks, readinessCheck{name: name, check: check})
	}
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	checks    []readinessCheck
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{startedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status reports liveness.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Readiness probes every registered dependency and reports 503 when any
// probe fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := ReadinessResponse{Status: "ready"}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}

	for _, probe := range h.checks {
		if err := probe.check(ctx); err != nil {
			resp.Checks[probe.name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[probe.name] = "ok"
	}

	c.JSON(status, resp)
}
