package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/event-wizard/internal/models"
)

// ErrClosed is returned when subscribing to a closed notifier
var ErrClosed = errors.New("notifier closed")

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisNotifier delivers messages over Redis pub/sub so that every API
// instance can serve the live channel of any session
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier connects to Redis
func NewRedisNotifier(ctx context.Context, cfg RedisConfig) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisNotifier{client: client}, nil
}

// Channel returns the pub/sub channel of a session
func Channel(sessionID string) string {
	return fmt.Sprintf("wizard:%s:events", sessionID)
}

// Notify implements Notifier
func (n *RedisNotifier) Notify(ctx context.Context, sessionID string, msg models.LiveMessage) error {
	msg.SessionID = sessionID

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal live message: %w", err)
	}

	if err := n.client.Publish(ctx, Channel(sessionID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish live message: %w", err)
	}
	return nil
}

// Subscribe implements Notifier
func (n *RedisNotifier) Subscribe(ctx context.Context, sessionID string) (<-chan models.LiveMessage, func(), error) {
	pubsub := n.client.Subscribe(ctx, Channel(sessionID))

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan models.LiveMessage, subscriberBuffer)
	var once sync.Once
	release := func() {
		once.Do(func() { pubsub.Close() })
	}

	go func() {
		defer close(out)
		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				release()
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				var msg models.LiveMessage
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					slog.Warn("skipping malformed live message",
						"session_id", sessionID,
						"error", err,
					)
					continue
				}
				select {
				case out <- msg:
				default:
					slog.Warn("dropping live message for slow subscriber",
						"session_id", sessionID,
						"type", msg.Type,
					)
				}
			}
		}
	}()

	return out, release, nil
}

// Ping checks Redis connectivity
func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
