package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/event-wizard/internal/session"
)

// sessionContext resolves the {id} URL parameter to an existing wizard
// session and stores its id in the request context
func (s *Server) sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			respondError(w, http.StatusBadRequest, "validation_error", "wizard id is required")
			return
		}

		if _, err := s.sessions.Get(r.Context(), id); err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				respondError(w, http.StatusNotFound, "not_found", "wizard session not found")
				return
			}
			slog.Error("failed to resolve wizard session", "error", err, "session_id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to resolve wizard session")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSessionID(r.Context(), id)))
	})
}

// requireEventStore rejects requests when no event store is configured
func (s *Server) requireEventStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.events == nil {
			respondError(w, http.StatusServiceUnavailable, "event_store_disabled",
				"event store is not configured; set WIZARD_CREATOR=postgres")
			return
		}
		next.ServeHTTP(w, r)
	})
}
