package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pitchtutor/models"
)

type upsertCall struct {
	studentID         string
	stepIndex         int
	totalInteractions *int
	lastMessage       *string
}

type evalCall struct {
	studentID string
	stepName  string
	score     *int
	feedback  string
}

type fakeRepo struct {
	failAll    bool
	upserts    []upsertCall
	evals      []evalCall
	increments int
}

func (f *fakeRepo) UpsertSession(studentID string, stepIndex int, totalInteractions *int, lastMessage *string) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	f.upserts = append(f.upserts, upsertCall{studentID, stepIndex, totalInteractions, lastMessage})
	return nil
}

func (f *fakeRepo) InsertEvaluation(studentID, stepName string, score *int, feedback string) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	f.evals = append(f.evals, evalCall{studentID, stepName, score, feedback})
	return nil
}

func (f *fakeRepo) IncrementInteractions(studentID string) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	f.increments++
	return nil
}

type fakeCompletion struct {
	reply     string
	fragments []string
	err       error
}

func (f *fakeCompletion) Generate(ctx context.Context, prompt string, onFragment func(string) error) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if onFragment != nil {
		for _, fragment := range f.fragments {
			if err := onFragment(fragment); err != nil {
				return "", err
			}
		}
	}
	return f.reply, nil
}

func newTestService(reply string) (*Service, *fakeRepo, *models.StudentSession) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeCompletion{reply: reply})
	session, _ := svc.StartSession()
	return svc, repo, session
}

func TestMarkerBlockedOnFirstMessage(t *testing.T) {
	svc, repo, session := newTestService("Good start! [STEP_COMPLETED] Keep going.")

	result, err := svc.HandleMessage(context.Background(), session.StudentID, "short", nil)
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if strings.Contains(result.Reply, StepCompletedMarker) {
		t.Errorf("marker was not stripped from reply: %q", result.Reply)
	}
	if session.StepIndex != 0 {
		t.Errorf("step index = %d, want 0", session.StepIndex)
	}
	if len(result.Notifications) != 0 {
		t.Errorf("unexpected notifications: %v", result.Notifications)
	}

	// Only the initial best-effort write should have hit the store.
	if len(repo.upserts) != 1 {
		t.Errorf("upsert count = %d, want 1", len(repo.upserts))
	}
}

func TestApprovedAdvanceCommitsExactlyOneStep(t *testing.T) {
	svc, repo, session := newTestService("Nice work. [STEP_COMPLETED]")

	session.StepInteractions["step_0"] = 3

	result, err := svc.HandleMessage(context.Background(), session.StudentID, "explain more about my audience", nil)
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if session.StepIndex != 1 {
		t.Fatalf("step index = %d, want 1", session.StepIndex)
	}
	if session.CurrentStep != models.PitchSteps[1] {
		t.Errorf("current step = %q, want %q", session.CurrentStep, models.PitchSteps[1])
	}
	if len(result.Notifications) != 1 || !strings.Contains(result.Notifications[0], models.PitchSteps[1]) {
		t.Errorf("notifications = %v, want step-advanced notification naming %q", result.Notifications, models.PitchSteps[1])
	}

	last := repo.upserts[len(repo.upserts)-1]
	if last.stepIndex != 1 {
		t.Errorf("persisted step index = %d, want 1", last.stepIndex)
	}
	if last.totalInteractions == nil || *last.totalInteractions != 4 {
		t.Errorf("persisted interactions = %v, want 4", last.totalInteractions)
	}
}

func TestExplicitNextBypassesInteractionGuard(t *testing.T) {
	svc, _, session := newTestService("Moving on. [STEP_COMPLETED]")

	result, err := svc.HandleMessage(context.Background(), session.StudentID, "/next", nil)
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if session.StepIndex != 1 {
		t.Errorf("step index = %d, want 1", session.StepIndex)
	}
	if len(result.Notifications) != 1 {
		t.Errorf("notifications = %v, want one step-advanced notification", result.Notifications)
	}
}

func TestLastStepEmitsCompletionNotification(t *testing.T) {
	svc, _, session := newTestService("All done! [STEP_COMPLETED]")

	session.StepIndex = len(models.PitchSteps) - 1
	session.CurrentStep = models.PitchSteps[session.StepIndex]
	session.StepInteractions[session.StepKey()] = 5

	result, err := svc.HandleMessage(context.Background(), session.StudentID, "take me to the next step", nil)
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if session.StepIndex != len(models.PitchSteps)-1 {
		t.Errorf("step index = %d, want %d", session.StepIndex, len(models.PitchSteps)-1)
	}
	if len(result.Notifications) != 1 || !strings.Contains(result.Notifications[0], "Congratulations") {
		t.Errorf("notifications = %v, want all-steps-complete notification", result.Notifications)
	}
}

func TestStoreFailureDoesNotBlockAdvance(t *testing.T) {
	repo := &fakeRepo{failAll: true}
	svc := NewService(repo, &fakeCompletion{reply: "Great. [STEP_COMPLETED]"})
	session, _ := svc.StartSession()
	session.StepInteractions["step_0"] = 2

	result, err := svc.HandleMessage(context.Background(), session.StudentID, "my audience is early-stage founders", nil)
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if session.StepIndex != 1 {
		t.Errorf("step index = %d, want 1 despite store failure", session.StepIndex)
	}
	if len(result.Notifications) != 1 {
		t.Errorf("notifications = %v, want step-advanced notification despite store failure", result.Notifications)
	}
	if result.Reply == "" {
		t.Error("reply was empty")
	}
}

func TestNonMentorPersonaNeverAdvances(t *testing.T) {
	svc, _, session := newTestService("Sounds cool! [STEP_COMPLETED]")

	session.ActivePersona = models.PersonaPeer
	session.StepInteractions["step_0"] = 5

	_, err := svc.HandleMessage(context.Background(), session.StudentID, "take me to the next step", nil)
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if session.StepIndex != 0 {
		t.Errorf("step index = %d, want 0 for peer persona", session.StepIndex)
	}
	if session.StepInteractions["step_0"] != 5 {
		t.Errorf("interaction count = %d, want 5 (peer messages do not count)", session.StepInteractions["step_0"])
	}
}

func TestMentorInteractionCounterIsMonotonic(t *testing.T) {
	svc, repo, session := newTestService("Tell me more.")

	for i := 1; i <= 3; i++ {
		if _, err := svc.HandleMessage(context.Background(), session.StudentID, "here is some detail about my product", nil); err != nil {
			t.Fatalf("HandleMessage returned error: %v", err)
		}
		if got := session.StepInteractions["step_0"]; got != i {
			t.Fatalf("interaction count after message %d = %d, want %d", i, got, i)
		}
	}

	if repo.increments != 3 {
		t.Errorf("store increment calls = %d, want 3", repo.increments)
	}
}

func TestGenerationErrorLeavesSessionIntact(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeCompletion{err: errors.New("upstream timeout")})
	session, _ := svc.StartSession()

	_, err := svc.HandleMessage(context.Background(), session.StudentID, "hello there, mentor", nil)
	if err == nil {
		t.Fatal("expected error from failed generation")
	}

	if session.StepIndex != 0 {
		t.Errorf("step index = %d, want 0", session.StepIndex)
	}
	if session.StepInteractions["step_0"] != 0 {
		t.Errorf("interaction count = %d, want 0 after failed generation", session.StepInteractions["step_0"])
	}
	if len(session.Histories[models.PersonaMentor]) != 0 {
		t.Errorf("history length = %d, want 0 after failed generation", len(session.Histories[models.PersonaMentor]))
	}
}

func TestUnknownSessionShortCircuits(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeCompletion{reply: "hi"})

	_, err := svc.HandleMessage(context.Background(), "00000000", "hello", nil)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestFragmentsArriveInOrder(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeCompletion{
		reply:     "one two three",
		fragments: []string{"one ", "two ", "three"},
	})
	session, _ := svc.StartSession()

	var got []string
	result, err := svc.HandleMessage(context.Background(), session.StudentID, "walk me through this step", func(fragment string) error {
		got = append(got, fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if strings.Join(got, "") != result.Reply {
		t.Errorf("folded fragments = %q, want %q", strings.Join(got, ""), result.Reply)
	}
}

func TestDispatchAppendsSelfContainedHistory(t *testing.T) {
	svc, _, session := newTestService("A fine answer.")

	if _, err := svc.HandleMessage(context.Background(), session.StudentID, "who is my audience?", nil); err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	history := session.Histories[models.PersonaMentor]
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "who is my audience?" {
		t.Errorf("unexpected user entry: %+v", history[0])
	}
	if history[1].Role != "assistant" || history[1].Content != "A fine answer." {
		t.Errorf("unexpected assistant entry: %+v", history[1])
	}
}

func TestEndSessionClearsState(t *testing.T) {
	svc, _, session := newTestService("bye")

	if _, err := svc.EndSession(session.StudentID); err != nil {
		t.Fatalf("EndSession returned error: %v", err)
	}

	if _, err := svc.GetSession(session.StudentID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession after end = %v, want ErrSessionNotFound", err)
	}

	if _, err := svc.EndSession(session.StudentID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second EndSession = %v, want ErrSessionNotFound", err)
	}
}

func TestStartSessionDefaults(t *testing.T) {
	svc, repo, session := newTestService("hi")

	if len(session.StudentID) != 8 {
		t.Errorf("student ID %q is not 8 digits", session.StudentID)
	}
	if session.StepIndex != 0 || session.CurrentStep != models.PitchSteps[0] {
		t.Errorf("session starts at step %d (%q), want 0 (%q)", session.StepIndex, session.CurrentStep, models.PitchSteps[0])
	}
	if session.ActivePersona != models.PersonaMentor {
		t.Errorf("active persona = %v, want mentor", session.ActivePersona)
	}
	if len(repo.upserts) != 1 || repo.upserts[0].stepIndex != 0 {
		t.Errorf("initial upsert = %+v, want one call with step index 0", repo.upserts)
	}

	// A failing store must not prevent session creation.
	failing := NewService(&fakeRepo{failAll: true}, &fakeCompletion{reply: "hi"})
	session2, welcome := failing.StartSession()
	if session2 == nil || welcome == "" {
		t.Error("StartSession failed when the store was unreachable")
	}

	if _, err := svc.GetSession(session.StudentID); err != nil {
		t.Errorf("GetSession returned error: %v", err)
	}
}
