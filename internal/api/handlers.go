package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/terra-clan/event-wizard/internal/session"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondWizardError maps wizard and session errors to HTTP responses
func respondWizardError(w http.ResponseWriter, err error, action, sessionID string) {
	var verr *wizard.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusUnprocessableEntity, "validation_error", verr.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "wizard session not found")
	case errors.Is(err, wizard.ErrUnknownStep):
		respondError(w, http.StatusNotFound, "unknown_step", err.Error())
	case errors.Is(err, wizard.ErrInvalidPayload):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, wizard.ErrStepLocked):
		respondError(w, http.StatusConflict, "step_locked", err.Error())
	case errors.Is(err, wizard.ErrReviewRequiresConfirm):
		respondError(w, http.StatusConflict, "review_requires_confirm", err.Error())
	case errors.Is(err, wizard.ErrNotAtReview):
		respondError(w, http.StatusConflict, "not_at_review", err.Error())
	case errors.Is(err, wizard.ErrSubmissionPending):
		respondError(w, http.StatusConflict, "submission_pending", err.Error())
	case errors.Is(err, wizard.ErrDanglingReferences):
		respondError(w, http.StatusUnprocessableEntity, "dangling_references", err.Error())
	case errors.Is(err, session.ErrManagerClosed):
		respondError(w, http.StatusServiceUnavailable, "shutting_down", "service is shutting down")
	default:
		slog.Error("failed to "+action, "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

// pagination reads limit and offset query parameters
func pagination(r *http.Request) (limit, offset int) {
	limit = 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	if s.events != nil {
		if err := s.events.Ping(r.Context()); err != nil {
			slog.Warn("event store ping failed", "error", err)
			respondError(w, http.StatusServiceUnavailable, "not_ready", "event store not ready")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
