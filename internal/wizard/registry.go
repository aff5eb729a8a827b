package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terra-clan/event-wizard/internal/models"
)

// ErrUnknownStep is returned when a token does not name a wizard step
var ErrUnknownStep = errors.New("unknown step")

// steps is the fixed order of the wizard
var steps = [...]models.Step{
	models.StepBasicDetails,
	models.StepVenues,
	models.StepDates,
	models.StepTimes,
	models.StepTickets,
	models.StepAssignTickets,
	models.StepMedia,
	models.StepAdditionalInfo,
	models.StepReview,
}

const stepCount = len(steps)

// Steps returns the wizard steps in order
func Steps() []models.Step {
	out := make([]models.Step, stepCount)
	copy(out, steps[:])
	return out
}

// First returns the entry step
func First() models.Step {
	return steps[0]
}

// Terminal returns the review step
func Terminal() models.Step {
	return steps[stepCount-1]
}

// IndexOf returns the position of step, or -1 if it is not a wizard step
func IndexOf(step models.Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}

// NextOf returns the step after step. It returns false at the terminal step.
func NextOf(step models.Step) (models.Step, bool) {
	i := IndexOf(step)
	if i < 0 || i == stepCount-1 {
		return "", false
	}
	return steps[i+1], true
}

// PrevOf returns the step before step. It returns false at the first step.
func PrevOf(step models.Step) (models.Step, bool) {
	i := IndexOf(step)
	if i <= 0 {
		return "", false
	}
	return steps[i-1], true
}

// ParseStep resolves a location token to a step. A leading "#" is ignored
// so URL fragments can be passed as they are.
func ParseStep(token string) (models.Step, error) {
	step := models.Step(strings.TrimPrefix(strings.TrimSpace(token), "#"))
	if IndexOf(step) < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, token)
	}
	return step, nil
}
