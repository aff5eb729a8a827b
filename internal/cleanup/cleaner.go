package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/event-wizard/internal/models"
)

// SessionStore is the part of the session manager the cleaner needs
type SessionStore interface {
	GetExpired(ctx context.Context, cutoff time.Time) ([]*models.SessionSummary, error)
	Delete(ctx context.Context, id string) error
}

// Cleaner periodically removes wizard sessions that have been idle for
// longer than the configured TTL
type Cleaner struct {
	store    SessionStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
}

// NewCleaner creates a new cleanup worker
func NewCleaner(store SessionStore, ttl, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Cleaner{
		store:    store,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup worker in a goroutine. It stops when ctx is done.
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the worker has stopped
func (c *Cleaner) Done() <-chan struct{} {
	return c.done
}

func (c *Cleaner) run(ctx context.Context) {
	defer close(c.done)
	slog.Info("cleanup worker started", "interval", c.interval, "idle_ttl", c.ttl)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce removes every idle session and returns how many were removed
func (c *Cleaner) RunOnce(ctx context.Context) int {
	cutoff := c.now().Add(-c.ttl)

	expired, err := c.store.GetExpired(ctx, cutoff)
	if err != nil {
		slog.Error("failed to get idle sessions", "error", err)
		return 0
	}

	if len(expired) == 0 {
		slog.Debug("no idle sessions found")
		return 0
	}

	slog.Info("found idle sessions", "count", len(expired), "cutoff", cutoff)

	removed := 0
	for _, s := range expired {
		if err := c.store.Delete(ctx, s.ID); err != nil {
			slog.Error("failed to delete idle session",
				"error", err,
				"session_id", s.ID,
			)
			continue
		}
		removed++

		slog.Info("idle session deleted",
			"session_id", s.ID,
			"current", s.Current,
			"last_update", s.UpdatedAt,
		)
	}
	return removed
}
