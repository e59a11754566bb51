package handler

import (
	"encoding/json"
	"formdesk/internal/designer"
	"formdesk/internal/model"
	"formdesk/internal/service"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DesignerHandler handles questionnaire designer endpoints
type DesignerHandler struct {
	designerSvc *service.DesignerService
	logger      *zap.Logger
}

// NewDesignerHandler creates a new designer handler
func NewDesignerHandler(designerSvc *service.DesignerService, logger *zap.Logger) *DesignerHandler {
	return &DesignerHandler{
		designerSvc: designerSvc,
		logger:      logger,
	}
}

// TitleRequest is the request body for renaming a questionnaire
type TitleRequest struct {
	Title string `json:"title"`
}

// SectionRequest is the request body for adding a section
type SectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ReorderRequest moves the question at From to To
type ReorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Open handles POST /v1/designer/sessions
// Parameters come from the JSON body or the template, id, new and name query values.
func (h *DesignerHandler) Open(w http.ResponseWriter, r *http.Request) {
	var p service.OpenParams
	if r.ContentLength > 0 {
		if !decode(w, r, &p) {
			return
		}
	}
	q := r.URL.Query()
	if p.TemplateID == "" {
		p.TemplateID = q.Get("template")
	}
	if p.ID == "" {
		p.ID = q.Get("id")
	}
	if p.Name == "" {
		p.Name = q.Get("name")
	}
	if v := q.Get("new"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "new must be true or false")
			return
		}
		p.New = b
	}

	draft, err := h.designerSvc.Open(r.Context(), p)
	if draft == nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeMutation(w, h.logger, http.StatusCreated, draft.ID, draft.Questionnaire, err)
}

// Get handles GET /v1/designer/sessions/{id}
func (h *DesignerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q, err := h.designerSvc.Get(id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, service.Draft{ID: id, Questionnaire: q})
}

// Close handles DELETE /v1/designer/sessions/{id}
func (h *DesignerHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.designerSvc.Close(mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTitle handles PUT /v1/designer/sessions/{id}/title
func (h *DesignerHandler) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decode(w, r, &req) {
		return
	}
	id := mux.Vars(r)["id"]
	q, err := h.designerSvc.SetTitle(r.Context(), id, req.Title)
	writeMutation(w, h.logger, http.StatusOK, id, q, err)
}

// AddSection handles POST /v1/designer/sessions/{id}/sections
func (h *DesignerHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if !decode(w, r, &req) {
		return
	}
	id := mux.Vars(r)["id"]
	q, err := h.designerSvc.AddSection(r.Context(), id, req.Title, req.Description)
	writeMutation(w, h.logger, http.StatusCreated, id, q, err)
}

// DeleteSection handles DELETE /v1/designer/sessions/{id}/sections/{sectionId}
func (h *DesignerHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q, err := h.designerSvc.DeleteSection(r.Context(), vars["id"], vars["sectionId"])
	writeMutation(w, h.logger, http.StatusOK, vars["id"], q, err)
}

// MoveSection handles POST /v1/designer/sessions/{id}/sections/{index}/move?dir=up|down
func (h *DesignerHandler) MoveSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid section index")
		return
	}
	var up bool
	switch r.URL.Query().Get("dir") {
	case "up":
		up = true
	case "down":
	default:
		writeError(w, http.StatusBadRequest, "dir must be up or down")
		return
	}
	q, err := h.designerSvc.MoveSection(r.Context(), vars["id"], index, up)
	writeMutation(w, h.logger, http.StatusOK, vars["id"], q, err)
}

// AddQuestion handles POST /v1/designer/sessions/{id}/sections/{sectionId}/questions
func (h *DesignerHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var in designer.QuestionInput
	if !decode(w, r, &in) {
		return
	}
	vars := mux.Vars(r)
	q, err := h.designerSvc.AddQuestion(r.Context(), vars["id"], vars["sectionId"], in)
	writeMutation(w, h.logger, http.StatusCreated, vars["id"], q, err)
}

// UpdateQuestion handles PUT /v1/designer/sessions/{id}/sections/{sectionId}/questions/{questionId}
func (h *DesignerHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var in designer.QuestionInput
	if !decode(w, r, &in) {
		return
	}
	vars := mux.Vars(r)
	q, err := h.designerSvc.UpdateQuestion(r.Context(), vars["id"], vars["sectionId"], vars["questionId"], in)
	writeMutation(w, h.logger, http.StatusOK, vars["id"], q, err)
}

// DeleteQuestion handles DELETE /v1/designer/sessions/{id}/sections/{sectionId}/questions/{questionId}
func (h *DesignerHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q, err := h.designerSvc.DeleteQuestion(r.Context(), vars["id"], vars["sectionId"], vars["questionId"])
	writeMutation(w, h.logger, http.StatusOK, vars["id"], q, err)
}

// ReorderQuestions handles POST /v1/designer/sessions/{id}/sections/{sectionId}/reorder
func (h *DesignerHandler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decode(w, r, &req) {
		return
	}
	if req.From == nil || req.To == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	vars := mux.Vars(r)
	q, err := h.designerSvc.ReorderQuestions(r.Context(), vars["id"], vars["sectionId"], *req.From, *req.To)
	writeMutation(w, h.logger, http.StatusOK, vars["id"], q, err)
}

// Save handles POST /v1/designer/sessions/{id}/save
func (h *DesignerHandler) Save(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q, err := h.designerSvc.Save(r.Context(), id)
	writeMutation(w, h.logger, http.StatusOK, id, q, err)
}

// ListDrafts handles GET /v1/questionnaires
func (h *DesignerHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.designerSvc.ListDrafts(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.DraftSummary{"questionnaires": drafts})
}

// DeleteDraft handles DELETE /v1/questionnaires/{id}
func (h *DesignerHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.designerSvc.DeleteDraft(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
