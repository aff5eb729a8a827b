package models

import (
	"encoding/json"
	"time"
)

// WizardSession is a point-in-time view of one event creation wizard
type WizardSession struct {
	ID         string            `json:"id"`
	EventID    string            `json:"eventId"`
	Location   Step              `json:"location"`
	Current    Step              `json:"current"`
	Steps      []StepState       `json:"steps"`
	Draft      *Draft            `json:"draft"`
	Submission Submission        `json:"submission"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// StepState returns the state of a single step from the view
func (s *WizardSession) StepState(step Step) (StepState, bool) {
	for _, st := range s.Steps {
		if st.Step == step {
			return st, true
		}
	}
	return StepState{}, false
}

// SessionSummary is the list representation of a wizard session
type SessionSummary struct {
	ID         string          `json:"id"`
	EventID    string          `json:"eventId"`
	Title      string          `json:"title,omitempty"`
	Current    Step            `json:"current"`
	Submission SubmissionState `json:"submission"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// CreateSessionRequest represents a request to start a wizard
type CreateSessionRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NavigateRequest carries a location token from the client
type NavigateRequest struct {
	Location string `json:"location"`
}

// StepSubmitRequest wraps the raw field-group of a step
type StepSubmitRequest struct {
	Data json.RawMessage `json:"data"`
}

// NavigationResponse is returned by back/navigate calls
type NavigationResponse struct {
	Moved   bool           `json:"moved"`
	Session *WizardSession `json:"session"`
}

// ListSessionsFilters defines filters for listing wizard sessions
type ListSessionsFilters struct {
	Submission SubmissionState
	Limit      int
	Offset     int
}
