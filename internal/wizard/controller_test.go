package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/terra-clan/event-wizard/internal/models"
)

func completeAll(t *testing.T, c *Controller) {
	t.Helper()
	for _, data := range allStepData() {
		if _, err := c.OnStepSubmit(data); err != nil {
			t.Fatalf("submit %s: %v", data.Step(), err)
		}
	}
}

func TestOnStepSubmitBasicDetails(t *testing.T) {
	c := NewController()

	next, err := c.OnStepSubmit(basicDetails())
	if err != nil {
		t.Fatalf("OnStepSubmit failed: %v", err)
	}
	if next != models.StepVenues {
		t.Errorf("next = %s, want venues", next)
	}

	if st, _ := c.Status().State(models.StepBasicDetails); st.Status != models.StepComplete {
		t.Errorf("basicDetails status = %s, want complete", st.Status)
	}
	if st, _ := c.Status().State(models.StepVenues); st.Status != models.StepCurrent {
		t.Errorf("venues status = %s, want current", st.Status)
	}
	if c.Draft().BasicDetails.Title != "Concert Night" {
		t.Errorf("title = %q", c.Draft().BasicDetails.Title)
	}
	if c.Status().Location() != models.StepVenues {
		t.Errorf("location = %s, want venues", c.Status().Location())
	}
}

func TestVenuesRoundTrip(t *testing.T) {
	c := NewController()
	if _, err := c.OnStepSubmit(basicDetails()); err != nil {
		t.Fatal(err)
	}

	// Duplicates and order must survive untouched
	in := models.VenueList{
		{ID: "v3", Name: "Zeta", Address: "z", City: "Lagos", Country: "NG"},
		{ID: "v1", Name: "Alpha", Address: "a", City: "Lagos", Country: "NG"},
		{ID: "v1", Name: "Alpha", Address: "a", City: "Lagos", Country: "NG"},
	}
	if _, err := c.OnStepSubmit(in); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(in, c.Draft().Venues); diff != "" {
		t.Errorf("venues changed (-submitted +stored):\n%s", diff)
	}

	// The draft keeps its own copy
	in[0].Name = "changed"
	if c.Draft().Venues[0].Name != "Zeta" {
		t.Error("draft shares memory with the submitted slice")
	}
}

func TestOnStepSubmitLockedStep(t *testing.T) {
	c := NewController()
	before := c.Status().Snapshot()

	_, err := c.OnStepSubmit(tickets())
	if !errors.Is(err, ErrStepLocked) {
		t.Fatalf("err = %v, want ErrStepLocked", err)
	}
	if len(c.Draft().Tickets) != 0 {
		t.Error("locked submit wrote to the draft")
	}
	if diff := cmp.Diff(before, c.Status().Snapshot()); diff != "" {
		t.Errorf("locked submit changed status:\n%s", diff)
	}
}

func TestResubmitReplacesSlice(t *testing.T) {
	c := NewController()
	completeAll(t, c)

	c.Navigate(models.StepVenues)
	replacement := models.VenueList{{ID: "v9", Name: "Arena", Address: "x", City: "Accra", Country: "GH"}}
	next, err := c.OnStepSubmit(replacement)
	if err != nil {
		t.Fatal(err)
	}
	if next != models.StepDates {
		t.Errorf("next = %s", next)
	}
	if diff := cmp.Diff(replacement, c.Draft().Venues); diff != "" {
		t.Errorf("venues not replaced wholesale:\n%s", diff)
	}
}

func TestBackDoesNotDowngradeCompletion(t *testing.T) {
	c := NewController()
	if _, err := c.OnStepSubmit(basicDetails()); err != nil {
		t.Fatal(err)
	}

	if !c.Navigate(models.StepVenues) {
		t.Fatal("venues should be clickable")
	}
	if !c.OnBack(models.StepVenues) {
		t.Fatal("back from venues should succeed")
	}
	if c.Status().Current() != models.StepBasicDetails {
		t.Errorf("current = %s", c.Status().Current())
	}
	if !c.Navigate(models.StepVenues) {
		t.Fatal("venues should still be clickable")
	}

	if st, _ := c.Status().State(models.StepBasicDetails); st.Status != models.StepComplete {
		t.Errorf("basicDetails status = %s, want complete", st.Status)
	}
}

func TestOnBackAtFirstStep(t *testing.T) {
	c := NewController()
	if c.OnBack(models.StepBasicDetails) {
		t.Error("back from the first step must be a no-op")
	}
}

func TestRestore(t *testing.T) {
	c := NewController()
	if _, err := c.OnStepSubmit(basicDetails()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.OnStepSubmit(venues()); err != nil {
		t.Fatal(err)
	}

	if got := c.Restore("#venues"); got != models.StepVenues {
		t.Errorf("Restore(#venues) = %s", got)
	}
	if got := c.Restore("tickets"); got != models.StepVenues {
		t.Errorf("locked token should keep current step, got %s", got)
	}
	if got := c.Restore("garbage"); got != models.StepVenues {
		t.Errorf("unknown token should keep current step, got %s", got)
	}
}

func TestReviewSubmitRequiresConfirm(t *testing.T) {
	c := NewController()
	_, err := c.OnStepSubmit(nil)
	if err == nil {
		t.Error("nil data accepted")
	}
	if _, err := DecodeStepData(models.StepReview, []byte(`{}`)); !errors.Is(err, ErrReviewRequiresConfirm) {
		t.Errorf("err = %v, want ErrReviewRequiresConfirm", err)
	}
}

func TestConfirmEnablesAllSteps(t *testing.T) {
	c := NewController()
	completeAll(t, c)

	if c.Status().Current() != models.StepReview {
		t.Fatalf("current = %s, want review", c.Status().Current())
	}

	creator := &fakeCreator{}
	review, err := c.Confirm(context.Background(), "evt-1", creator)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if creator.calls != 1 || creator.eventID != "evt-1" || creator.review != review {
		t.Errorf("creator called %d times with %q", creator.calls, creator.eventID)
	}

	for _, st := range c.Status().Snapshot() {
		if !st.IsClickable {
			t.Errorf("%s not clickable", st.Step)
		}
		if st.Status == models.StepIncomplete {
			t.Errorf("%s still incomplete", st.Step)
		}
	}

	sub := c.Submission()
	if sub.State != models.SubmissionSucceeded || sub.EventID != "evt-1" || sub.Attempts != 1 {
		t.Errorf("submission = %+v", sub)
	}
}

func TestConfirmFailureLeavesStatusUnchanged(t *testing.T) {
	c := NewController()
	completeAll(t, c)
	before := c.Status().Snapshot()

	_, err := c.Confirm(context.Background(), "evt-1", &fakeCreator{err: errBackendDown})
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("err = %v, want backend error", err)
	}
	if diff := cmp.Diff(before, c.Status().Snapshot()); diff != "" {
		t.Errorf("failed confirm changed status:\n%s", diff)
	}
	sub := c.Submission()
	if sub.State != models.SubmissionFailed || sub.Error == "" {
		t.Errorf("submission = %+v", sub)
	}

	// A retry is allowed
	if _, err := c.Confirm(context.Background(), "evt-1", &fakeCreator{}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if c.Submission().Attempts != 2 {
		t.Errorf("attempts = %d", c.Submission().Attempts)
	}
}

func TestConfirmGuards(t *testing.T) {
	c := NewController()
	if _, err := c.BeginConfirm(); !errors.Is(err, ErrNotAtReview) {
		t.Errorf("err = %v, want ErrNotAtReview", err)
	}

	completeAll(t, c)
	if _, err := c.BeginConfirm(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.BeginConfirm(); !errors.Is(err, ErrSubmissionPending) {
		t.Errorf("err = %v, want ErrSubmissionPending", err)
	}
	if _, err := c.OnStepSubmit(basicDetails()); !errors.Is(err, ErrSubmissionPending) {
		t.Errorf("edit while pending: err = %v", err)
	}
	c.FinishConfirm("evt-1", nil)
	if c.Submission().State != models.SubmissionSucceeded {
		t.Errorf("state = %s", c.Submission().State)
	}
}

func TestConfirmRejectsDanglingReferences(t *testing.T) {
	c := NewController()
	completeAll(t, c)

	// Shrink the venue list after dates referenced v2
	c.Navigate(models.StepVenues)
	if _, err := c.OnStepSubmit(models.VenueList{venues()[0]}); err != nil {
		t.Fatal(err)
	}
	c.Navigate(models.StepReview)

	_, err := c.BeginConfirm()
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want *ReferenceError", err)
	}
	if !errors.Is(err, ErrDanglingReferences) {
		t.Error("ReferenceError must unwrap to ErrDanglingReferences")
	}
	want := []DanglingReference{{Entity: "date", EntityID: "d2", Field: "venueId", MissingID: "v2"}}
	if diff := cmp.Diff(want, refErr.References); diff != "" {
		t.Errorf("references (-want +got):\n%s", diff)
	}
	if c.Submission().State != models.SubmissionIdle {
		t.Errorf("state = %s, want idle", c.Submission().State)
	}
}
