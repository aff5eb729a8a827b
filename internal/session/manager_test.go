package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/terra-clan/event-wizard/internal/creation"
	"github.com/terra-clan/event-wizard/internal/models"
	"github.com/terra-clan/event-wizard/internal/notify"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func loadPayload(t *testing.T, step models.Step) json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "wizard", string(step)+".json"))
	if err != nil {
		t.Fatalf("failed to read payload for %s: %v", step, err)
	}
	return data
}

type testEnv struct {
	manager  *MemoryManager
	creator  *creation.SimulatedCreator
	notifier *notify.MemoryNotifier
}

func newTestEnv(t *testing.T, delay time.Duration) *testEnv {
	t.Helper()
	env := &testEnv{
		creator:  creation.NewSimulatedCreator(),
		notifier: notify.NewMemoryNotifier(),
	}
	env.manager = NewMemoryManager(wizard.NewEditors(nil), env.creator, env.notifier, Options{SubmitDelay: delay})
	t.Cleanup(func() {
		env.manager.Close()
		env.notifier.Close()
	})
	return env
}

// fillAll submits every editable step with the shared payloads
func fillAll(t *testing.T, m *MemoryManager, id string) *models.WizardSession {
	t.Helper()
	var s *models.WizardSession
	for _, step := range wizard.Steps()[:len(wizard.Steps())-1] {
		var err error
		s, err = m.SubmitStep(context.Background(), id, step, loadPayload(t, step))
		if err != nil {
			t.Fatalf("SubmitStep(%s) failed: %v", step, err)
		}
	}
	return s
}

func waitFor(t *testing.T, ch <-chan models.LiveMessage, match func(models.LiveMessage) bool) models.LiveMessage {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatal("live channel closed")
			}
			if match(msg) {
				return msg
			}
		case <-timeout:
			t.Fatal("timed out waiting for live message")
		}
	}
}

func submissionDone(msg models.LiveMessage) bool {
	return msg.Type == models.LiveSubmission && msg.Submission != nil &&
		msg.Submission.State != models.SubmissionPending
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	s, err := env.manager.Create(ctx, models.CreateSessionRequest{Metadata: map[string]string{"source": "test"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.ID == "" || s.EventID == "" {
		t.Fatal("expected session and event ids")
	}
	if s.Current != models.StepBasicDetails || s.Location != models.StepBasicDetails {
		t.Errorf("expected to start on basicDetails, got current=%s location=%s", s.Current, s.Location)
	}
	if s.Submission.State != models.SubmissionIdle {
		t.Errorf("expected idle submission, got %s", s.Submission.State)
	}

	got, err := env.manager.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	if _, err := env.manager.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitStepAdvances(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})

	live, release, err := env.manager.Subscribe(ctx, s.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer release()

	s, err = env.manager.SubmitStep(ctx, s.ID, models.StepBasicDetails, loadPayload(t, models.StepBasicDetails))
	if err != nil {
		t.Fatalf("SubmitStep failed: %v", err)
	}

	if s.Current != models.StepVenues {
		t.Errorf("expected venues to be current, got %s", s.Current)
	}
	if s.Draft.BasicDetails.Title != "Concert Night" {
		t.Errorf("expected trimmed title, got %q", s.Draft.BasicDetails.Title)
	}
	if diff := cmp.Diff([]string{"live", "outdoor"}, s.Draft.BasicDetails.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	msg := waitFor(t, live, func(m models.LiveMessage) bool { return m.Type == models.LiveLocation })
	if msg.Location != models.StepVenues {
		t.Errorf("expected location venues, got %s", msg.Location)
	}
}

func TestSubmitStepValidationPublishesToast(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})
	fillAll(t, env.manager, s.ID)

	live, release, err := env.manager.Subscribe(ctx, s.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer release()

	// Back on media without a card image
	if _, err := env.manager.Navigate(ctx, s.ID, string(models.StepMedia)); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	before, _ := env.manager.Get(ctx, s.ID)

	_, err = env.manager.SubmitStep(ctx, s.ID, models.StepMedia, json.RawMessage(`{"gallery": []}`))
	if !errors.Is(err, wizard.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	msg := waitFor(t, live, func(m models.LiveMessage) bool { return m.Type == models.LiveToast })
	want := &models.Toast{
		Title:       "No card image",
		Description: "upload a card image before continuing",
		Severity:    models.SeverityDestructive,
	}
	if diff := cmp.Diff(want, msg.Toast); diff != "" {
		t.Errorf("toast mismatch (-want +got):\n%s", diff)
	}

	after, _ := env.manager.Get(ctx, s.ID)
	if diff := cmp.Diff(before.Steps, after.Steps); diff != "" {
		t.Errorf("status map changed on validation failure (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(before.Draft, after.Draft); diff != "" {
		t.Errorf("draft changed on validation failure (-before +after):\n%s", diff)
	}
}

func TestSubmitStepErrors(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})

	tests := []struct {
		name string
		step models.Step
		raw  json.RawMessage
		want error
	}{
		{"locked step", models.StepTickets, loadPayload(t, models.StepTickets), wizard.ErrStepLocked},
		{"review", models.StepReview, json.RawMessage(`{}`), wizard.ErrReviewRequiresConfirm},
		{"unknown step", models.Step("payments"), json.RawMessage(`{}`), wizard.ErrStepLocked},
		{"bad json", models.StepBasicDetails, json.RawMessage(`{"title":`), wizard.ErrInvalidPayload},
		{"empty body", models.StepBasicDetails, nil, wizard.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.manager.SubmitStep(ctx, s.ID, tt.step, tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := env.manager.SubmitStep(ctx, "missing", models.StepBasicDetails, loadPayload(t, models.StepBasicDetails)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestBackAndNavigate(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})

	for _, step := range []models.Step{models.StepBasicDetails, models.StepVenues} {
		if _, err := env.manager.SubmitStep(ctx, s.ID, step, loadPayload(t, step)); err != nil {
			t.Fatalf("SubmitStep(%s) failed: %v", step, err)
		}
	}

	resp, err := env.manager.Back(ctx, s.ID, models.StepDates)
	if err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if !resp.Moved || resp.Session.Current != models.StepVenues {
		t.Errorf("expected to move back to venues, got moved=%v current=%s", resp.Moved, resp.Session.Current)
	}
	dates, _ := resp.Session.StepState(models.StepDates)
	if dates.Status != models.StepComplete || !dates.IsClickable {
		t.Errorf("expected dates to stay complete and clickable, got %+v", dates)
	}

	// Locked step is ignored
	resp, err = env.manager.Navigate(ctx, s.ID, "#tickets")
	if err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	if resp.Moved || resp.Session.Current != models.StepVenues {
		t.Errorf("expected locked navigation to be ignored, got moved=%v current=%s", resp.Moved, resp.Session.Current)
	}

	// Unknown token is ignored
	resp, _ = env.manager.Navigate(ctx, s.ID, "#nowhere")
	if resp.Moved {
		t.Error("expected unknown token to be ignored")
	}

	resp, err = env.manager.Navigate(ctx, s.ID, "#dates")
	if err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	if !resp.Moved || resp.Session.Location != models.StepDates {
		t.Errorf("expected to navigate to dates, got moved=%v location=%s", resp.Moved, resp.Session.Location)
	}

	// First step has no predecessor
	resp, _ = env.manager.Back(ctx, s.ID, models.StepBasicDetails)
	if resp.Moved {
		t.Error("expected back from the first step to be a no-op")
	}
}

func TestConfirmSucceeds(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})
	filled := fillAll(t, env.manager, s.ID)
	if filled.Current != models.StepReview {
		t.Fatalf("expected review to be current, got %s", filled.Current)
	}

	live, release, err := env.manager.Subscribe(ctx, s.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer release()

	pending, err := env.manager.Confirm(ctx, s.ID)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if pending.Submission.State != models.SubmissionPending {
		t.Errorf("expected pending submission, got %s", pending.Submission.State)
	}

	// A second confirm while pending is rejected
	if _, err := env.manager.Confirm(ctx, s.ID); !errors.Is(err, wizard.ErrSubmissionPending) {
		t.Errorf("expected ErrSubmissionPending, got %v", err)
	}

	msg := waitFor(t, live, submissionDone)
	if msg.Submission.State != models.SubmissionSucceeded {
		t.Fatalf("expected success, got %+v", msg.Submission)
	}
	if msg.Submission.EventID != s.EventID {
		t.Errorf("expected event id %s, got %s", s.EventID, msg.Submission.EventID)
	}

	review, ok := env.creator.Created(s.EventID)
	if !ok {
		t.Fatal("creator was not called")
	}
	if review.TotalAssigned != 300 {
		t.Errorf("expected 300 assigned tickets, got %d", review.TotalAssigned)
	}

	done, _ := env.manager.Get(ctx, s.ID)
	for _, st := range done.Steps {
		if !st.IsClickable {
			t.Errorf("expected %s to be clickable after creation", st.Step)
		}
	}
}

func TestConfirmFailureKeepsStatus(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})
	fillAll(t, env.manager, s.ID)
	before, _ := env.manager.Get(ctx, s.ID)

	env.creator.SetFailure(errors.New("backend down"))

	live, release, err := env.manager.Subscribe(ctx, s.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer release()

	if _, err := env.manager.Confirm(ctx, s.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	msg := waitFor(t, live, submissionDone)
	if msg.Submission.State != models.SubmissionFailed || msg.Submission.Error != "backend down" {
		t.Fatalf("expected failure, got %+v", msg.Submission)
	}
	toast := waitFor(t, live, func(m models.LiveMessage) bool { return m.Type == models.LiveToast })
	if toast.Toast.Severity != models.SeverityDestructive {
		t.Errorf("expected destructive toast, got %s", toast.Toast.Severity)
	}

	after, _ := env.manager.Get(ctx, s.ID)
	if diff := cmp.Diff(before.Steps, after.Steps); diff != "" {
		t.Errorf("status map changed on failure (-before +after):\n%s", diff)
	}

	// Retry succeeds
	env.creator.SetFailure(nil)
	if _, err := env.manager.Confirm(ctx, s.ID); err != nil {
		t.Fatalf("retry Confirm failed: %v", err)
	}
	msg = waitFor(t, live, submissionDone)
	if msg.Submission.State != models.SubmissionSucceeded || msg.Submission.Attempts != 2 {
		t.Errorf("expected success on second attempt, got %+v", msg.Submission)
	}
}

func TestConfirmRequiresReview(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})

	if _, err := env.manager.Confirm(ctx, s.ID); !errors.Is(err, wizard.ErrNotAtReview) {
		t.Errorf("expected ErrNotAtReview, got %v", err)
	}
}

func TestCloseCancelsScheduledSubmission(t *testing.T) {
	creator := creation.NewSimulatedCreator()
	notifier := notify.NewMemoryNotifier()
	defer notifier.Close()
	m := NewMemoryManager(wizard.NewEditors(nil), creator, notifier, Options{SubmitDelay: time.Hour})

	ctx := context.Background()
	s, _ := m.Create(ctx, models.CreateSessionRequest{})
	fillAll(t, m, s.ID)
	if _, err := m.Confirm(ctx, s.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, _ := m.Get(ctx, s.ID)
	if got.Submission.State != models.SubmissionFailed {
		t.Errorf("expected cancelled submission to fail, got %s", got.Submission.State)
	}
	if _, ok := creator.Created(s.EventID); ok {
		t.Error("creator must not be called after close")
	}
	if _, err := m.Create(ctx, models.CreateSessionRequest{}); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("expected ErrManagerClosed, got %v", err)
	}
}

func TestReview(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()
	s, _ := env.manager.Create(ctx, models.CreateSessionRequest{})

	empty, err := env.manager.Review(ctx, s.ID)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if empty.Placeholders[wizard.SectionVenues] != wizard.NonePlaceholder {
		t.Errorf("expected None placeholder for venues, got %q", empty.Placeholders[wizard.SectionVenues])
	}

	fillAll(t, env.manager, s.ID)
	review, _ := env.manager.Review(ctx, s.ID)
	if len(review.Placeholders) != 0 {
		t.Errorf("expected no placeholders, got %v", review.Placeholders)
	}
	if review.Venues[1].Name != models.TBAVenueName {
		t.Errorf("expected TBA venue, got %s", review.Venues[1].Name)
	}
}

func TestListAndExpire(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	env.manager.now = func() time.Time { return clock }

	old, _ := env.manager.Create(ctx, models.CreateSessionRequest{})
	clock = clock.Add(time.Hour)
	fresh, _ := env.manager.Create(ctx, models.CreateSessionRequest{})
	if _, err := env.manager.SubmitStep(ctx, fresh.ID, models.StepBasicDetails, loadPayload(t, models.StepBasicDetails)); err != nil {
		t.Fatalf("SubmitStep failed: %v", err)
	}

	list, err := env.manager.List(ctx, models.ListSessionsFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != fresh.ID {
		t.Fatalf("expected newest session first, got %+v", list)
	}
	if list[0].Title != "Concert Night" {
		t.Errorf("expected title in summary, got %q", list[0].Title)
	}

	page, _ := env.manager.List(ctx, models.ListSessionsFilters{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != old.ID {
		t.Errorf("expected second page to hold the old session, got %+v", page)
	}

	expired, err := env.manager.GetExpired(ctx, clock.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("GetExpired failed: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != old.ID {
		t.Errorf("expected only the old session to expire, got %+v", expired)
	}

	if err := env.manager.Delete(ctx, old.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := env.manager.Delete(ctx, old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPing(t *testing.T) {
	env := newTestEnv(t, 0)
	if err := env.manager.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
