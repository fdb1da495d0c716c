package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency the readiness check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	driver string
	store  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler for the named store driver
func NewHealthHandler(driver string, store Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		driver: driver,
		store:  store,
		logger: logger,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - Simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - Returns 200 only if the store answers a ping
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "ready"
	statusCode := http.StatusOK

	switch {
	case h.store == nil:
		checks[h.driver] = "not configured"
		status, statusCode = "not_ready", http.StatusServiceUnavailable
	default:
		if err := h.store.Ping(ctx); err != nil {
			checks[h.driver] = "error: " + err.Error()
			status, statusCode = "not_ready", http.StatusServiceUnavailable
		} else {
			checks[h.driver] = "ok"
		}
	}

	writeJSON(w, statusCode, ReadinessResponse{Status: status, Checks: checks})

	if statusCode != http.StatusOK {
		h.logger.Warn("readiness check failed",
			slog.String("driver", h.driver),
			slog.String("check", checks[h.driver]),
		)
	}
}
