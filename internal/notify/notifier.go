// Package notify fans out live session messages (toasts, location changes,
// submission updates) to everyone watching a wizard session.
package notify

import (
	"context"

	"github.com/terra-clan/event-wizard/internal/models"
)

// subscriberBuffer is the number of messages queued per subscriber before
// new messages are dropped for it
const subscriberBuffer = 32

// Notifier publishes and subscribes to the live messages of a session
type Notifier interface {
	// Notify publishes msg to every subscriber of sessionID. It does not
	// wait for subscribers to read the message.
	Notify(ctx context.Context, sessionID string, msg models.LiveMessage) error

	// Subscribe returns a channel of messages for sessionID. The returned
	// func releases the subscription and closes the channel; it is also
	// released when ctx is done.
	Subscribe(ctx context.Context, sessionID string) (<-chan models.LiveMessage, func(), error)

	Close() error
}

// Toast publishes a toast message
func Toast(ctx context.Context, n Notifier, sessionID string, toast models.Toast) error {
	return n.Notify(ctx, sessionID, models.LiveMessage{
		Type:  models.LiveToast,
		Toast: &toast,
	})
}
