// Package session hosts wizard sessions: one Controller per session,
// serialised behind a per-session lock, with the creation call of the
// review step run as a deferred background job.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/event-wizard/internal/creation"
	"github.com/terra-clan/event-wizard/internal/models"
	"github.com/terra-clan/event-wizard/internal/notify"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

// Common errors
var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrManagerClosed   = errors.New("session manager is shutting down")
)

// Manager defines the interface for wizard session management
type Manager interface {
	Create(ctx context.Context, req models.CreateSessionRequest) (*models.WizardSession, error)
	Get(ctx context.Context, id string) (*models.WizardSession, error)
	List(ctx context.Context, filters models.ListSessionsFilters) ([]*models.SessionSummary, error)
	Delete(ctx context.Context, id string) error
	SubmitStep(ctx context.Context, id string, step models.Step, raw json.RawMessage) (*models.WizardSession, error)
	Back(ctx context.Context, id string, step models.Step) (*models.NavigationResponse, error)
	Navigate(ctx context.Context, id, location string) (*models.NavigationResponse, error)
	Review(ctx context.Context, id string) (*wizard.Review, error)
	Confirm(ctx context.Context, id string) (*models.WizardSession, error)
	Subscribe(ctx context.Context, id string) (<-chan models.LiveMessage, func(), error)
	GetExpired(ctx context.Context, cutoff time.Time) ([]*models.SessionSummary, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options tunes the deferred submission
type Options struct {
	// SubmitDelay is how long a confirmed review waits before the
	// creator is called
	SubmitDelay time.Duration
	// SubmitTimeout bounds a single creator call
	SubmitTimeout time.Duration
}

const defaultSubmitTimeout = 30 * time.Second

// entry is one hosted session. mu guards every field below it.
type entry struct {
	mu        sync.Mutex
	id        string
	eventID   string
	ctrl      *wizard.Controller
	metadata  map[string]string
	createdAt time.Time
	updatedAt time.Time
}

// MemoryManager implements Manager with sessions held in process memory
type MemoryManager struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	editors  *wizard.Editors
	creator  creation.Creator
	notifier notify.Notifier
	opts     Options
	now      func() time.Time

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryManager creates a new MemoryManager
func NewMemoryManager(
	editors *wizard.Editors,
	creator creation.Creator,
	notifier notify.Notifier,
	opts Options,
) *MemoryManager {
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = defaultSubmitTimeout
	}

	return &MemoryManager{
		sessions: make(map[string]*entry),
		editors:  editors,
		creator:  creator,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Ping checks that the creator backend and the notifier are reachable
func (m *MemoryManager) Ping(ctx context.Context) error {
	if err := m.creator.HealthCheck(ctx); err != nil {
		return fmt.Errorf("creator %s health check failed: %w", m.creator.Name(), err)
	}

	if p, ok := m.notifier.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("notifier ping failed: %w", err)
		}
	}

	return nil
}

// Create starts a new wizard session on its first step
func (m *MemoryManager) Create(_ context.Context, req models.CreateSessionRequest) (*models.WizardSession, error) {
	select {
	case <-m.done:
		return nil, ErrManagerClosed
	default:
	}

	now := m.now()
	e := &entry{
		id:        uuid.New().String(),
		eventID:   uuid.New().String(),
		ctrl:      wizard.NewController(),
		metadata:  copyMetadata(req.Metadata),
		createdAt: now,
		updatedAt: now,
	}

	m.mu.Lock()
	m.sessions[e.id] = e
	m.mu.Unlock()

	slog.Info("wizard session created", "session_id", e.id, "event_id", e.eventID)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view(), nil
}

func (m *MemoryManager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// Get retrieves a session by ID
func (m *MemoryManager) Get(_ context.Context, id string) (*models.WizardSession, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view(), nil
}

// List returns sessions matching filters, newest first
func (m *MemoryManager) List(_ context.Context, filters models.ListSessionsFilters) ([]*models.SessionSummary, error) {
	summaries := m.summaries(func(s *models.SessionSummary) bool {
		return filters.Submission == "" || s.Submission == filters.Submission
	})

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(summaries) {
			return []*models.SessionSummary{}, nil
		}
		summaries = summaries[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(summaries) {
		summaries = summaries[:filters.Limit]
	}

	return summaries, nil
}

// GetExpired returns sessions untouched since cutoff. Sessions with a
// submission in flight are never expired.
func (m *MemoryManager) GetExpired(_ context.Context, cutoff time.Time) ([]*models.SessionSummary, error) {
	return m.summaries(func(s *models.SessionSummary) bool {
		return s.UpdatedAt.Before(cutoff) && s.Submission != models.SubmissionPending
	}), nil
}

func (m *MemoryManager) summaries(keep func(*models.SessionSummary) bool) []*models.SessionSummary {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	result := make([]*models.SessionSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		s := e.summary()
		e.mu.Unlock()
		if keep(s) {
			result = append(result, s)
		}
	}
	return result
}

// Delete removes a session. A submission in flight still completes.
func (m *MemoryManager) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)

	slog.Info("wizard session deleted", "session_id", id)
	return nil
}

// SubmitStep decodes, normalises and validates the field-group of step and
// hands it to the controller. A validation failure is published as a
// destructive toast and leaves the session unchanged.
func (m *MemoryManager) SubmitStep(ctx context.Context, id string, step models.Step, raw json.RawMessage) (*models.WizardSession, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if step != wizard.Terminal() && !e.ctrl.Status().IsClickable(step) {
		return nil, fmt.Errorf("%w: %s", wizard.ErrStepLocked, step)
	}

	data, err := wizard.DecodeStepData(step, raw)
	if err != nil {
		return nil, err
	}

	prepared, err := m.editors.Prepare(e.ctrl.Draft(), data)
	if err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			m.toast(ctx, e.id, verr.Toast())
		}
		return nil, err
	}

	next, err := e.ctrl.OnStepSubmit(prepared)
	if err != nil {
		return nil, err
	}
	e.updatedAt = m.now()

	slog.Info("wizard step submitted", "session_id", e.id, "step", step, "next", next)
	m.publish(ctx, e.id, models.LiveMessage{Type: models.LiveLocation, Location: next})

	return e.view(), nil
}

// Back moves to the step before step
func (m *MemoryManager) Back(ctx context.Context, id string, step models.Step) (*models.NavigationResponse, error) {
	return m.move(ctx, id, func(c *wizard.Controller) bool {
		return c.OnBack(step)
	})
}

// Navigate applies a location token. Tokens naming a locked or unknown
// step are ignored.
func (m *MemoryManager) Navigate(ctx context.Context, id, location string) (*models.NavigationResponse, error) {
	return m.move(ctx, id, func(c *wizard.Controller) bool {
		before := c.Status().Current()
		return c.Restore(location) != before
	})
}

func (m *MemoryManager) move(ctx context.Context, id string, fn func(*wizard.Controller) bool) (*models.NavigationResponse, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	moved := fn(e.ctrl)
	if moved {
		e.updatedAt = m.now()
		m.publish(ctx, e.id, models.LiveMessage{Type: models.LiveLocation, Location: e.ctrl.Status().Location()})
	}

	return &models.NavigationResponse{Moved: moved, Session: e.view()}, nil
}

// Review assembles the composite record of the session's draft
func (m *MemoryManager) Review(_ context.Context, id string) (*wizard.Review, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return wizard.Aggregate(e.ctrl.Draft()), nil
}

// Confirm puts the review step into the pending state and schedules the
// creator call. The outcome is reported on the live channel.
func (m *MemoryManager) Confirm(ctx context.Context, id string) (*models.WizardSession, error) {
	select {
	case <-m.done:
		return nil, ErrManagerClosed
	default:
	}

	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	review, err := e.ctrl.BeginConfirm()
	if err != nil {
		var rerr *wizard.ReferenceError
		if errors.As(err, &rerr) {
			m.toast(ctx, e.id, models.Toast{
				Title:       "Review has broken references",
				Description: rerr.Error(),
				Severity:    models.SeverityDestructive,
			})
		}
		return nil, err
	}
	e.updatedAt = m.now()

	sub := e.ctrl.Submission()
	m.publish(ctx, e.id, models.LiveMessage{Type: models.LiveSubmission, Submission: &sub})

	slog.Info("event submission scheduled",
		"session_id", e.id,
		"event_id", e.eventID,
		"attempt", sub.Attempts,
		"delay", m.opts.SubmitDelay,
	)

	m.wg.Add(1)
	go m.submit(e, review)

	return e.view(), nil
}

// submit runs the deferred creator call for a confirmed review
func (m *MemoryManager) submit(e *entry, review *wizard.Review) {
	defer m.wg.Done()

	if m.opts.SubmitDelay > 0 {
		timer := time.NewTimer(m.opts.SubmitDelay)
		select {
		case <-timer.C:
		case <-m.done:
			timer.Stop()
			m.finish(e, ErrManagerClosed)
			return
		}
	}

	ctx, cancel := context.WithTimeout(creation.WithSessionID(context.Background(), e.id), m.opts.SubmitTimeout)
	defer cancel()

	m.finish(e, m.creator.CreateEvent(ctx, e.eventID, review))
}

func (m *MemoryManager) finish(e *entry, err error) {
	e.mu.Lock()
	e.ctrl.FinishConfirm(e.eventID, err)
	e.updatedAt = m.now()
	sub := e.ctrl.Submission()
	e.mu.Unlock()

	toast := models.Toast{
		Title:       "Event created",
		Description: "Every step can now be edited.",
		Severity:    models.SeverityDefault,
	}
	if err != nil {
		slog.Error("event creation failed", "session_id", e.id, "event_id", e.eventID, "error", err)
		toast = models.Toast{
			Title:       "Event creation failed",
			Description: err.Error(),
			Severity:    models.SeverityDestructive,
		}
	} else {
		slog.Info("event creation succeeded", "session_id", e.id, "event_id", e.eventID)
	}

	ctx := context.Background()
	m.publish(ctx, e.id, models.LiveMessage{Type: models.LiveSubmission, Submission: &sub})
	m.toast(ctx, e.id, toast)
}

// Subscribe returns the live messages of a session
func (m *MemoryManager) Subscribe(ctx context.Context, id string) (<-chan models.LiveMessage, func(), error) {
	if _, err := m.lookup(id); err != nil {
		return nil, nil, err
	}
	return m.notifier.Subscribe(ctx, id)
}

func (m *MemoryManager) publish(ctx context.Context, id string, msg models.LiveMessage) {
	if err := m.notifier.Notify(ctx, id, msg); err != nil {
		slog.Warn("failed to publish live message", "session_id", id, "type", msg.Type, "error", err)
	}
}

func (m *MemoryManager) toast(ctx context.Context, id string, toast models.Toast) {
	if err := notify.Toast(ctx, m.notifier, id, toast); err != nil {
		slog.Warn("failed to publish toast", "session_id", id, "title", toast.Title, "error", err)
	}
}

// Close cancels scheduled submissions and waits for running ones
func (m *MemoryManager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
	return nil
}

// view returns a snapshot of the session. Caller holds e.mu.
func (e *entry) view() *models.WizardSession {
	status := e.ctrl.Status()
	return &models.WizardSession{
		ID:         e.id,
		EventID:    e.eventID,
		Location:   status.Location(),
		Current:    status.Current(),
		Steps:      status.Snapshot(),
		Draft:      e.ctrl.Draft().Clone(),
		Submission: e.ctrl.Submission(),
		Metadata:   copyMetadata(e.metadata),
		CreatedAt:  e.createdAt,
		UpdatedAt:  e.updatedAt,
	}
}

// summary returns the list representation. Caller holds e.mu.
func (e *entry) summary() *models.SessionSummary {
	s := &models.SessionSummary{
		ID:         e.id,
		EventID:    e.eventID,
		Current:    e.ctrl.Status().Current(),
		Submission: e.ctrl.Submission().State,
		CreatedAt:  e.createdAt,
		UpdatedAt:  e.updatedAt,
	}
	if bd := e.ctrl.Draft().BasicDetails; bd != nil {
		s.Title = bd.Title
	}
	return s
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
