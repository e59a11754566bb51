package handler

import (
	"formdesk/internal/model"
	"formdesk/internal/service"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// InstanceHandler handles sent questionnaire endpoints
type InstanceHandler struct {
	instanceSvc *service.InstanceService
	logger      *zap.Logger
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(instanceSvc *service.InstanceService, logger *zap.Logger) *InstanceHandler {
	return &InstanceHandler{
		instanceSvc: instanceSvc,
		logger:      logger,
	}
}

// SubmitRequest is the request body for completing a questionnaire
type SubmitRequest struct {
	Answers model.Answers `json:"answers"`
}

// OpenResponse is what a recipient sees on their first visit
type OpenResponse struct {
	Instance      *model.Instance     `json:"instance"`
	Questionnaire model.Questionnaire `json:"questionnaire"`
}

// Send handles POST /v1/instances
func (h *InstanceHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req service.SendRequest
	if !decode(w, r, &req) {
		return
	}
	inst, err := h.instanceSvc.Send(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

// List handles GET /v1/instances?q=
func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.instanceSvc.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"instances": list})
}

// Get handles GET /v1/instances/{id}
func (h *InstanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inst, err := h.instanceSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// Open handles POST /v1/questionnaire/{id}/open
func (h *InstanceHandler) Open(w http.ResponseWriter, r *http.Request) {
	inst, q, err := h.instanceSvc.Open(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OpenResponse{Instance: inst, Questionnaire: q})
}

// Submit handles POST /v1/questionnaire/{id}/submit
func (h *InstanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decode(w, r, &req) {
		return
	}
	inst, err := h.instanceSvc.Complete(r.Context(), mux.Vars(r)["id"], req.Answers)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}
