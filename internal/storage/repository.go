package storage

import (
	"context"

	"github.com/terra-clan/event-wizard/internal/models"
)

// Repository defines the interface for event persistence.
// Get methods return nil, nil when the record does not exist.
type Repository interface {
	// Events
	CreateEvent(ctx context.Context, ev *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, filters models.EventFilters) ([]*models.Event, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
