package handler

import (
	"formdesk/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// MetricsHandler serves the dashboard metrics
type MetricsHandler struct {
	metricsSvc *service.MetricsService
	logger     *zap.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(metricsSvc *service.MetricsService, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		metricsSvc: metricsSvc,
		logger:     logger,
	}
}

// Get handles GET /v1/metrics
func (h *MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.metricsSvc.Compute(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
