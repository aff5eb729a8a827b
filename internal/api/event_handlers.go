package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/event-wizard/internal/models"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filters := models.EventFilters{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	}

	events, err := s.events.ListEvents(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list events", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list events")
		return
	}

	if events == nil {
		events = []*models.Event{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "event id is required")
		return
	}

	ev, err := s.events.GetEvent(r.Context(), id)
	if err != nil {
		slog.Error("failed to get event", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get event")
		return
	}

	if ev == nil {
		respondError(w, http.StatusNotFound, "not_found", "event not found")
		return
	}

	respondJSON(w, http.StatusOK, ev)
}
