package handler

import (
	"encoding/json"
	"errors"
	"formdesk/internal/designer"
	"formdesk/internal/model"
	"formdesk/internal/service"
	"net/http"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var (
		verr *designer.ValidationError
		nerr *designer.NotFoundError
		ierr *designer.IndexError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &ierr), errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.As(err, &nerr),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrInstanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInstanceCompleted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// MutationResponse is returned by every designer operation. Saved is false
// when the change was applied but the autosave failed.
type MutationResponse struct {
	ID            string              `json:"id,omitempty"`
	Questionnaire model.Questionnaire `json:"questionnaire"`
	Saved         bool                `json:"saved"`
	SaveError     string              `json:"saveError,omitempty"`
}

func writeMutation(w http.ResponseWriter, logger *zap.Logger, status int, id string, q model.Questionnaire, err error) {
	var perr *designer.PersistenceError
	if err != nil && !errors.As(err, &perr) {
		writeServiceError(w, logger, err)
		return
	}
	resp := MutationResponse{ID: id, Questionnaire: q, Saved: perr == nil}
	if perr != nil {
		resp.SaveError = perr.Error()
	}
	writeJSON(w, status, resp)
}
