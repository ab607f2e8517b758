package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"ansanalytics/internal/services"
	"ansanalytics/pkg/contracts"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health. An unhealthy database answers 503.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.HealthCheck(r.Context())
	if status.Status != services.StatusHealthy {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// Version handles GET /api/version with the build information
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	info := contracts.GetVersionInfo()
	info.Version = h.service.Version()
	render.JSON(w, r, info)
}
