package examsession

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	err     error
	answers []model.SubmittedAnswer
}

func (f *fakeSubmitter) Submit(_ context.Context, _ string, answers []model.SubmittedAnswer) (*model.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.answers = answers
	if f.err != nil {
		return nil, f.err
	}
	return &model.Result{ID: uuid.New()}, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func payloadWith(n, durationMinutes int) *model.TestPayload {
	questions := make([]model.QuestionForStudent, n)
	for i := range questions {
		questions[i] = model.QuestionForStudent{
			ID:       uuid.New(),
			Text:     "q",
			Options:  []string{"a", "b", "c", "d"},
			OrderNum: i + 1,
		}
	}
	return &model.TestPayload{
		TestID:          uuid.New(),
		Title:           "Quiz",
		DurationMinutes: durationMinutes,
		Questions:       questions,
	}
}

func startedSession(t *testing.T, n, durationMinutes int) (*Session, *fakeSubmitter) {
	t.Helper()
	sub := &fakeSubmitter{}
	s := New(sub)
	s.Start(payloadWith(n, durationMinutes))
	if s.Phase() != PhaseInProgress {
		t.Fatalf("phase = %v, want in_progress", s.Phase())
	}
	return s, sub
}

func TestStartSeedsCountdownWithFallback(t *testing.T) {
	s, _ := startedSession(t, 3, 30)
	if got := s.Remaining(); got != 30*60 {
		t.Errorf("Remaining = %d, want %d", got, 30*60)
	}

	s2, _ := startedSession(t, 3, 0)
	if got := s2.Remaining(); got != DefaultDurationSeconds {
		t.Errorf("fallback Remaining = %d, want %d", got, DefaultDurationSeconds)
	}
}

func TestSaveAndNextClearsMarkAndAdvances(t *testing.T) {
	s, _ := startedSession(t, 3, 30)

	s.SelectOption(2)
	s.MarkForReview() // marks q0, moves to q1
	if s.Current() != 1 {
		t.Fatalf("Current = %d, want 1", s.Current())
	}
	if !s.IsMarked(0) {
		t.Error("q0 should be marked")
	}

	s.NavigateTo(0)
	s.SaveAndNext() // clears the mark, moves on
	if s.IsMarked(0) {
		t.Error("SaveAndNext should clear the review mark")
	}
	if s.Answer(0) != 2 {
		t.Errorf("answer for q0 = %d, want 2", s.Answer(0))
	}
}

func TestNavigationClampsAtEdges(t *testing.T) {
	s, _ := startedSession(t, 3, 30)

	s.NavigateTo(99)
	if s.Current() != 2 {
		t.Errorf("Current = %d, want 2 (clamped)", s.Current())
	}
	s.NavigateTo(-5)
	if s.Current() != 0 {
		t.Errorf("Current = %d, want 0 (clamped)", s.Current())
	}

	// SaveAndNext on the last question stays put.
	s.NavigateTo(2)
	s.SaveAndNext()
	if s.Current() != 2 {
		t.Errorf("Current = %d, want 2", s.Current())
	}
}

func TestClearResponseRemovesSelection(t *testing.T) {
	s, _ := startedSession(t, 2, 30)

	s.SelectOption(1)
	if s.Answer(0) != 1 {
		t.Fatalf("answer = %d, want 1", s.Answer(0))
	}
	s.ClearResponse()
	if s.Answer(0) != -1 {
		t.Errorf("answer = %d, want -1 after clear", s.Answer(0))
	}
}

func TestSelectOptionRejectsOutOfRange(t *testing.T) {
	s, _ := startedSession(t, 2, 30)

	s.SelectOption(7)
	if s.Answer(0) != -1 {
		t.Errorf("out-of-range option must not be recorded, got %d", s.Answer(0))
	}
}

func TestInitiateSubmitSummary(t *testing.T) {
	s, _ := startedSession(t, 4, 30)

	s.SelectOption(0) // q0 answered
	s.SaveAndNext()
	s.MarkForReview() // q1 marked, not answered

	sum := s.InitiateSubmit()
	if sum.Total != 4 || sum.Answered != 1 || sum.NotAnswered != 3 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.MarkedForView != 1 {
		t.Errorf("MarkedForView = %d, want 1", sum.MarkedForView)
	}
	if sum.NotVisited != 1 { // q3 never shown
		t.Errorf("NotVisited = %d, want 1", sum.NotVisited)
	}
	if s.Phase() != PhaseInProgress {
		t.Error("InitiateSubmit must not change phase")
	}
}

func TestConfirmSubmitSendsOriginalOrderWithNils(t *testing.T) {
	s, sub := startedSession(t, 3, 30)

	s.NavigateTo(1)
	s.SelectOption(2)

	if err := s.ConfirmSubmit(context.Background()); err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}
	if s.Phase() != PhaseCompleted {
		t.Fatalf("phase = %v, want completed", s.Phase())
	}
	if s.Result() == nil {
		t.Fatal("result missing after completion")
	}

	if len(sub.answers) != 3 {
		t.Fatalf("submitted %d answers, want 3", len(sub.answers))
	}
	if sub.answers[0].SelectedIndex != nil {
		t.Error("q0 should be submitted as nil (skipped)")
	}
	if sub.answers[1].SelectedIndex == nil || *sub.answers[1].SelectedIndex != 2 {
		t.Errorf("q1 = %v, want 2", sub.answers[1].SelectedIndex)
	}
	if sub.answers[2].SelectedIndex != nil {
		t.Error("q2 should be submitted as nil (skipped)")
	}
}

func TestConfirmSubmitIsSingleShot(t *testing.T) {
	s, sub := startedSession(t, 2, 30)

	if err := s.ConfirmSubmit(context.Background()); err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}
	// Second confirm after completion is a no-op.
	if err := s.ConfirmSubmit(context.Background()); err != nil {
		t.Fatalf("repeat ConfirmSubmit: %v", err)
	}
	if sub.callCount() != 1 {
		t.Errorf("submit calls = %d, want 1", sub.callCount())
	}
}

func TestConfirmSubmitFailureRetainsAnswers(t *testing.T) {
	s, sub := startedSession(t, 2, 30)
	sub.err = errors.New("network down")

	s.SelectOption(3)
	if err := s.ConfirmSubmit(context.Background()); err == nil {
		t.Fatal("expected submit error")
	}
	if s.Phase() != PhaseInProgress {
		t.Errorf("phase = %v, want in_progress after failure", s.Phase())
	}
	if s.Answer(0) != 3 {
		t.Error("answers must survive a failed submission")
	}

	// Retry succeeds.
	sub.err = nil
	if err := s.ConfirmSubmit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.Phase() != PhaseCompleted {
		t.Errorf("phase = %v, want completed", s.Phase())
	}
}

func TestTickCountsDownAndForceSubmitsOnce(t *testing.T) {
	sub := &fakeSubmitter{}
	s := New(sub)
	payload := payloadWith(2, 30)
	s.Start(payload)

	// Drain the clock.
	for i := 0; i < 30*60; i++ {
		s.Tick(context.Background())
	}

	if s.Phase() != PhaseCompleted {
		t.Fatalf("phase = %v, want completed after expiry", s.Phase())
	}
	if sub.callCount() != 1 {
		t.Errorf("forced submits = %d, want 1", sub.callCount())
	}

	// Ticks after completion change nothing.
	s.Tick(context.Background())
	if sub.callCount() != 1 {
		t.Error("Tick after completion must not resubmit")
	}
}

func TestOperationsAreNoOpsOutsideInProgress(t *testing.T) {
	sub := &fakeSubmitter{}
	s := New(sub)

	// Still loading: nothing should happen, and nothing should panic.
	s.SelectOption(0)
	s.SaveAndNext()
	s.MarkForReview()
	s.ClearResponse()
	s.NavigateTo(1)
	s.Tick(context.Background())
	if err := s.ConfirmSubmit(context.Background()); err != nil {
		t.Fatalf("ConfirmSubmit while loading: %v", err)
	}
	if sub.callCount() != 0 {
		t.Error("no submit expected before the attempt starts")
	}

	s.Start(payloadWith(1, 10))
	if err := s.ConfirmSubmit(context.Background()); err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}

	s.SelectOption(0)
	if s.Answer(0) != -1 {
		t.Error("answers must be frozen after completion")
	}
}

func TestStartRejectsUnusablePayload(t *testing.T) {
	sub := &fakeSubmitter{}
	s := New(sub)

	s.Start(nil)
	if s.Phase() != PhaseLoading {
		t.Fatalf("phase = %v after Start(nil), want loading", s.Phase())
	}

	s.Start(payloadWith(0, 30))
	if s.Phase() != PhaseLoading {
		t.Fatalf("phase = %v after empty payload, want loading", s.Phase())
	}

	// The refused payload must not leave the session in a state where the
	// indexed operations can reach an empty question list.
	s.SelectOption(0)
	s.NavigateTo(5)
	s.SaveAndNext()
	s.Tick(context.Background())
	if s.Current() != 0 {
		t.Errorf("Current = %d, want 0", s.Current())
	}
	if sub.callCount() != 0 {
		t.Error("no submit expected for a session that never started")
	}

	// A usable payload can still start the same session afterwards.
	s.Start(payloadWith(2, 30))
	if s.Phase() != PhaseInProgress {
		t.Fatalf("phase = %v, want in_progress", s.Phase())
	}
	s.SelectOption(1)
	if s.Answer(0) != 1 {
		t.Errorf("answer = %d, want 1", s.Answer(0))
	}
}

func TestRequestExitBlockedWhileLive(t *testing.T) {
	sub := &fakeSubmitter{}
	s := New(sub)
	if !s.RequestExit() {
		t.Error("exit should be allowed while loading")
	}

	s.Start(payloadWith(1, 10))
	if s.RequestExit() {
		t.Error("exit must be blocked during an attempt")
	}

	if err := s.ConfirmSubmit(context.Background()); err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}
	if !s.RequestExit() {
		t.Error("exit should be allowed after completion")
	}
}
