package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   pinger
	backend string
}

func NewHealthHandler(store pinger, backend string) *HealthHandler {
	return &HealthHandler{store: store, backend: backend}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed: store unreachable", "error", err, "backend", h.backend)
		status = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			h.backend: status,
		},
	})
}
