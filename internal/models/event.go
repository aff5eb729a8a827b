package models

import (
	"encoding/json"
	"time"
)

// Event is a created event as persisted by the event store.
// Payload holds the composite review record as JSON.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// EventFilters defines filters for listing events
type EventFilters struct {
	Category string
	Limit    int
	Offset   int
}
