package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/event-wizard/internal/models"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

func (s *Server) handleCreateWizard(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	// An empty body starts a session without metadata
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ws, err := s.sessions.Create(r.Context(), req)
	if err != nil {
		respondWizardError(w, err, "create wizard session", "")
		return
	}

	respondJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleListWizards(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filters := models.ListSessionsFilters{
		Submission: models.SubmissionState(r.URL.Query().Get("submission")),
		Limit:      limit,
		Offset:     offset,
	}

	sessions, err := s.sessions.List(r.Context(), filters)
	if err != nil {
		respondWizardError(w, err, "list wizard sessions", "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wizards": sessions,
		"total":   len(sessions),
	})
}

func (s *Server) handleGetWizard(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	ws, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		respondWizardError(w, err, "get wizard session", id)
		return
	}

	respondJSON(w, http.StatusOK, ws)
}

func (s *Server) handleDeleteWizard(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	if err := s.sessions.Delete(r.Context(), id); err != nil {
		respondWizardError(w, err, "delete wizard session", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "wizard session deleted",
	})
}

func (s *Server) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	step, err := wizard.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		respondWizardError(w, err, "submit step", id)
		return
	}

	var req models.StepSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Data) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "data is required")
		return
	}

	ws, err := s.sessions.SubmitStep(r.Context(), id, step, req.Data)
	if err != nil {
		respondWizardError(w, err, "submit step", id)
		return
	}

	respondJSON(w, http.StatusOK, ws)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	step, err := wizard.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		respondWizardError(w, err, "go back", id)
		return
	}

	resp, err := s.sessions.Back(r.Context(), id, step)
	if err != nil {
		respondWizardError(w, err, "go back", id)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	var req models.NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Location == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "location is required")
		return
	}

	resp, err := s.sessions.Navigate(r.Context(), id, req.Location)
	if err != nil {
		respondWizardError(w, err, "navigate", id)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	review, err := s.sessions.Review(r.Context(), id)
	if err != nil {
		respondWizardError(w, err, "build review", id)
		return
	}

	respondJSON(w, http.StatusOK, review)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	ws, err := s.sessions.Confirm(r.Context(), id)
	if err != nil {
		respondWizardError(w, err, "confirm event", id)
		return
	}

	respondJSON(w, http.StatusAccepted, ws)
}
