package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/terra-clan/event-wizard/internal/models"
)

// MemoryNotifier delivers messages within the current process
type MemoryNotifier struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch   chan models.LiveMessage
	done chan struct{}
	once sync.Once
}

// NewMemoryNotifier creates an in-process notifier
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Notify implements Notifier
func (n *MemoryNotifier) Notify(_ context.Context, sessionID string, msg models.LiveMessage) error {
	msg.SessionID = sessionID

	n.mu.RLock()
	defer n.mu.RUnlock()

	for sub := range n.subs[sessionID] {
		select {
		case sub.ch <- msg:
		default:
			slog.Warn("dropping live message for slow subscriber",
				"session_id", sessionID,
				"type", msg.Type,
			)
		}
	}
	return nil
}

// Subscribe implements Notifier
func (n *MemoryNotifier) Subscribe(ctx context.Context, sessionID string) (<-chan models.LiveMessage, func(), error) {
	sub := &subscriber{
		ch:   make(chan models.LiveMessage, subscriberBuffer),
		done: make(chan struct{}),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, nil, ErrClosed
	}
	if n.subs[sessionID] == nil {
		n.subs[sessionID] = make(map[*subscriber]struct{})
	}
	n.subs[sessionID][sub] = struct{}{}
	n.mu.Unlock()

	release := func() { n.unsubscribe(sessionID, sub) }

	go func() {
		select {
		case <-ctx.Done():
			release()
		case <-sub.done:
		}
	}()

	return sub.ch, release, nil
}

func (n *MemoryNotifier) unsubscribe(sessionID string, sub *subscriber) {
	sub.once.Do(func() {
		n.mu.Lock()
		delete(n.subs[sessionID], sub)
		if len(n.subs[sessionID]) == 0 {
			delete(n.subs, sessionID)
		}
		n.mu.Unlock()
		close(sub.ch)
		close(sub.done)
	})
}

// Subscribers returns the number of active subscriptions for sessionID
func (n *MemoryNotifier) Subscribers(sessionID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[sessionID])
}

// Close releases every subscription
func (n *MemoryNotifier) Close() error {
	n.mu.Lock()
	n.closed = true
	var all []struct {
		id  string
		sub *subscriber
	}
	for id, subs := range n.subs {
		for sub := range subs {
			all = append(all, struct {
				id  string
				sub *subscriber
			}{id, sub})
		}
	}
	n.mu.Unlock()

	for _, s := range all {
		n.unsubscribe(s.id, s.sub)
	}
	return nil
}
