package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/polynews/backend/internal/service"
)

// StatusService is what the health handler needs from the service layer.
type StatusService interface {
	Check(ctx context.Context) service.Health
}

// HealthHandler serves the system status endpoint.
type HealthHandler struct {
	status StatusService
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(status StatusService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{status: status, logger: logger}
}

// HealthCheck reports connectivity and ingestion freshness. Always 200: the
// body carries the status so load balancers and dashboards read one shape.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.Check(r.Context()))
}
