package creation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/terra-clan/event-wizard/internal/wizard"
)

// SimulatedCreator logs the review payload instead of persisting it.
// It succeeds unless a failure has been injected.
type SimulatedCreator struct {
	mu      sync.Mutex
	fail    error
	created map[string]*wizard.Review
}

// NewSimulatedCreator creates a creator that always succeeds
func NewSimulatedCreator() *SimulatedCreator {
	return &SimulatedCreator{created: make(map[string]*wizard.Review)}
}

// Name implements Creator
func (c *SimulatedCreator) Name() string {
	return Simulated
}

// SetFailure makes subsequent calls fail with err; nil restores success
func (c *SimulatedCreator) SetFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

// CreateEvent implements wizard.Creator
func (c *SimulatedCreator) CreateEvent(ctx context.Context, eventID string, review *wizard.Review) error {
	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail != nil {
		slog.Warn("simulated event creation failed",
			"event_id", eventID,
			"session_id", SessionIDFromContext(ctx),
			"error", c.fail,
		)
		return c.fail
	}

	c.created[eventID] = review
	slog.Info("event created",
		"event_id", eventID,
		"session_id", SessionIDFromContext(ctx),
		"payload", string(payload),
	)
	return nil
}

// Created returns the last review stored under eventID
func (c *SimulatedCreator) Created(eventID string) (*wizard.Review, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.created[eventID]
	return r, ok
}

// HealthCheck implements Creator
func (c *SimulatedCreator) HealthCheck(context.Context) error {
	return nil
}
