package wizard

import (
	"github.com/terra-clan/event-wizard/internal/models"
)

// StatusMap tracks the status and clickability of every step, plus the
// location token mirroring the active step. Outside this package it is
// read-only; the Controller is its only writer. The zero value is not
// usable; create one with NewStatusMap.
type StatusMap struct {
	states   [stepCount]models.StepState
	location models.Step
}

// NewStatusMap returns a status map in its initial state: the first step
// current and clickable, every other step incomplete and locked.
func NewStatusMap() *StatusMap {
	m := &StatusMap{}
	m.initialize()
	return m
}

func (m *StatusMap) initialize() {
	for i, step := range steps {
		m.states[i] = models.StepState{
			Step:   step,
			Status: models.StepIncomplete,
		}
	}
	m.states[0].Status = models.StepCurrent
	m.states[0].IsClickable = true
	m.location = steps[0]
}

// activate makes step the current step. Clicks on a locked step are
// ignored: nothing changes and false is returned.
func (m *StatusMap) activate(step models.Step) bool {
	i := IndexOf(step)
	if i < 0 || !m.states[i].IsClickable {
		return false
	}

	for j := range m.states {
		if m.states[j].Status == models.StepCurrent {
			m.states[j].Status = models.StepComplete
		}
	}
	m.states[i].Status = models.StepCurrent
	m.location = step
	return true
}

// completeAndAdvance marks step complete and moves to next, unlocking it
func (m *StatusMap) completeAndAdvance(step, next models.Step) {
	i, n := IndexOf(step), IndexOf(next)
	if i < 0 || n < 0 {
		return
	}

	for j := range m.states {
		if j != n && m.states[j].Status == models.StepCurrent {
			m.states[j].Status = models.StepComplete
		}
	}
	m.states[i].Status = models.StepComplete
	m.states[n].Status = models.StepCurrent
	m.states[n].IsClickable = true
	m.location = next
}

// enableAll unlocks every step and promotes incomplete steps to complete.
// Used once the event has been created so it can be edited freely.
func (m *StatusMap) enableAll() {
	for j := range m.states {
		m.states[j].IsClickable = true
		if m.states[j].Status == models.StepIncomplete {
			m.states[j].Status = models.StepComplete
		}
	}
}

// Current returns the step whose status is current
func (m *StatusMap) Current() models.Step {
	for _, st := range m.states {
		if st.Status == models.StepCurrent {
			return st.Step
		}
	}
	// unreachable while the single-current invariant holds
	return m.location
}

// State returns the state of one step
func (m *StatusMap) State(step models.Step) (models.StepState, bool) {
	i := IndexOf(step)
	if i < 0 {
		return models.StepState{}, false
	}
	return m.states[i], true
}

// IsClickable reports whether step may be navigated to
func (m *StatusMap) IsClickable(step models.Step) bool {
	st, ok := m.State(step)
	return ok && st.IsClickable
}

// Location returns the location token of the active step
func (m *StatusMap) Location() models.Step {
	return m.location
}

// Snapshot returns a copy of all step states in wizard order
func (m *StatusMap) Snapshot() []models.StepState {
	out := make([]models.StepState, stepCount)
	copy(out, m.states[:])
	return out
}
