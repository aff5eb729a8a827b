package creation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/event-wizard/internal/models"
	"github.com/terra-clan/event-wizard/internal/storage"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

// StoreCreator persists the review as an event record
type StoreCreator struct {
	repo storage.Repository
	now  func() time.Time
}

// NewStoreCreator creates a creator backed by repo
func NewStoreCreator(repo storage.Repository) *StoreCreator {
	return &StoreCreator{repo: repo, now: time.Now}
}

// Name implements Creator
func (c *StoreCreator) Name() string {
	return Postgres
}

// CreateEvent implements wizard.Creator. A repeated call with the same
// eventID replaces the stored record.
func (c *StoreCreator) CreateEvent(ctx context.Context, eventID string, review *wizard.Review) error {
	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	now := c.now().UTC()
	ev := &models.Event{
		ID:        eventID,
		SessionID: SessionIDFromContext(ctx),
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if bd := review.BasicDetails; bd != nil {
		ev.Title = bd.Title
		ev.Category = bd.Category
	}

	if err := c.repo.CreateEvent(ctx, ev); err != nil {
		return err
	}

	slog.Info("event stored",
		"event_id", ev.ID,
		"session_id", ev.SessionID,
		"title", ev.Title,
	)
	return nil
}

// HealthCheck implements Creator
func (c *StoreCreator) HealthCheck(ctx context.Context) error {
	return c.repo.Ping(ctx)
}
