package api

import (
	"net/http"

	"github.com/terra-clan/event-wizard/internal/models"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.catalog.Categories()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"total":      len(categories),
	})
}

func (s *Server) handleListProhibitedItems(w http.ResponseWriter, r *http.Request) {
	items := s.catalog.ProhibitedItems()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// handleListSteps returns step metadata in wizard order
func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	order := wizard.Steps()
	steps := make([]*models.StepInfo, 0, len(order))
	for _, step := range order {
		steps = append(steps, s.catalog.StepInfo(step))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"steps": steps,
		"total": len(steps),
	})
}
