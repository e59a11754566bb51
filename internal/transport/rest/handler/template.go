package handler

import (
	"formdesk/internal/service"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TemplateHandler handles template catalog endpoints
type TemplateHandler struct {
	templateSvc *service.TemplateService
	logger      *zap.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateSvc *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateSvc: templateSvc,
		logger:      logger,
	}
}

// List handles GET /v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

// Get handles GET /v1/templates/{templateId}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.templateSvc.Get(r.Context(), mux.Vars(r)["templateId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
