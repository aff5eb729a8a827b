// Package creation holds the collaborators that turn a confirmed wizard
// review into an event.
package creation

import (
	"context"
	"sort"
	"sync"

	"github.com/terra-clan/event-wizard/internal/wizard"
)

// Names of the built-in creators
const (
	Simulated = "simulated"
	Postgres  = "postgres"
)

// Creator creates events and reports on its backend's health
type Creator interface {
	wizard.Creator

	// Name returns the name the creator is registered under
	Name() string

	// HealthCheck checks if the backend is available
	HealthCheck(ctx context.Context) error
}

// Registry manages the available creators
type Registry struct {
	mu       sync.RWMutex
	creators map[string]Creator
}

// NewRegistry creates a new creator registry
func NewRegistry() *Registry {
	return &Registry{
		creators: make(map[string]Creator),
	}
}

// Register adds a creator under its name
func (r *Registry) Register(c Creator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creators[c.Name()] = c
}

// Get retrieves a creator by name, nil if none is registered
func (r *Registry) Get(name string) Creator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creators[name]
}

// List returns all registered creator names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll checks health of all registered creators
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.creators))
	for name, c := range r.creators {
		results[name] = c.HealthCheck(ctx)
	}
	return results
}

type sessionKey struct{}

// WithSessionID attaches the wizard session id to ctx so creators can
// record where an event came from
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFromContext returns the session id attached by WithSessionID
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
