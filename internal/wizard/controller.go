package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/terra-clan/event-wizard/internal/models"
)

// Common errors
var (
	ErrStepLocked            = errors.New("step is not clickable")
	ErrReviewRequiresConfirm = errors.New("review step is submitted through confirm")
	ErrNotAtReview           = errors.New("confirm is only possible from the review step")
	ErrSubmissionPending     = errors.New("event submission already in progress")
)

// Creator creates the event from the composite review record.
// eventID is stable for a wizard session so a repeated confirm after
// post-creation edits updates the same event.
type Creator interface {
	CreateEvent(ctx context.Context, eventID string, review *Review) error
}

// Controller is the single writer of one wizard session's status map and
// draft. It is not safe for concurrent use; callers serialise access.
type Controller struct {
	status     *StatusMap
	draft      *models.Draft
	submission models.Submission
}

// NewController starts a fresh wizard session
func NewController() *Controller {
	return &Controller{
		status:     NewStatusMap(),
		draft:      models.NewDraft(),
		submission: models.Submission{State: models.SubmissionIdle},
	}
}

// Status returns the status map. Callers must not mutate it.
func (c *Controller) Status() *StatusMap {
	return c.status
}

// Draft returns the live draft. Callers must not mutate it.
func (c *Controller) Draft() *models.Draft {
	return c.draft
}

// Submission returns the review step's submission sub-state
func (c *Controller) Submission() models.Submission {
	return c.submission
}

// OnStepSubmit stores the validated field-group of a step and advances to
// the next step. Draft and status are updated together or not at all.
func (c *Controller) OnStepSubmit(data models.StepData) (models.Step, error) {
	if data == nil {
		return "", errors.New("nil step data")
	}

	step := data.Step()
	if step == Terminal() {
		return "", ErrReviewRequiresConfirm
	}
	if !c.status.IsClickable(step) {
		return "", fmt.Errorf("%w: %s", ErrStepLocked, step)
	}
	if c.submission.State == models.SubmissionPending {
		return "", ErrSubmissionPending
	}

	next, ok := NextOf(step)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}

	if err := applyStepData(c.draft, data); err != nil {
		return "", err
	}
	c.status.completeAndAdvance(step, next)

	// A changed draft may be confirmed again
	if c.submission.State == models.SubmissionFailed {
		c.submission.State = models.SubmissionIdle
		c.submission.Error = ""
	}

	return next, nil
}

// OnBack activates the step before step. Completion marks are kept.
func (c *Controller) OnBack(step models.Step) bool {
	prev, ok := PrevOf(step)
	if !ok {
		return false
	}
	return c.status.activate(prev)
}

// Navigate handles a click on a step in the step list
func (c *Controller) Navigate(step models.Step) bool {
	return c.status.activate(step)
}

// Restore applies a location token, e.g. after a reload or a deep link.
// The token wins only if it names a clickable step; otherwise the current
// step stays active. The active step is returned.
func (c *Controller) Restore(token string) models.Step {
	if step, err := ParseStep(token); err == nil && c.status.IsClickable(step) {
		c.status.activate(step)
	}
	return c.status.Current()
}

// BeginConfirm moves the review step into the pending sub-state and
// returns the composite record to hand to the creator.
func (c *Controller) BeginConfirm() (*Review, error) {
	if c.status.Current() != Terminal() {
		return nil, ErrNotAtReview
	}
	if c.submission.State == models.SubmissionPending {
		return nil, ErrSubmissionPending
	}
	if refs := CheckReferences(c.draft); len(refs) > 0 {
		return nil, &ReferenceError{References: refs}
	}

	c.submission.State = models.SubmissionPending
	c.submission.Error = ""
	c.submission.Attempts++
	return Aggregate(c.draft), nil
}

// FinishConfirm records the creator's outcome. On success every step is
// unlocked for editing; on failure the status map is left untouched.
func (c *Controller) FinishConfirm(eventID string, err error) {
	if c.submission.State != models.SubmissionPending {
		return
	}
	if err != nil {
		c.submission.State = models.SubmissionFailed
		c.submission.Error = err.Error()
		return
	}
	c.submission.State = models.SubmissionSucceeded
	c.submission.EventID = eventID
	c.status.enableAll()
}

// Confirm runs the whole terminal path synchronously
func (c *Controller) Confirm(ctx context.Context, eventID string, creator Creator) (*Review, error) {
	review, err := c.BeginConfirm()
	if err != nil {
		return nil, err
	}
	err = creator.CreateEvent(ctx, eventID, review)
	c.FinishConfirm(eventID, err)
	if err != nil {
		return review, fmt.Errorf("create event: %w", err)
	}
	return review, nil
}
