// Package examsession implements the client-side state machine that drives a
// timed exam attempt: answer bookkeeping, navigation, the countdown, and the
// single-submission gate.
package examsession

import (
	"context"
	"sync"

	"github.com/examlet/examlet-backend/internal/model"
)

// Phase is the lifecycle state of one exam attempt.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseInProgress
	PhaseSubmitting
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseInProgress:
		return "in_progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// DefaultDurationSeconds is used when the test payload carries no usable
// duration.
const DefaultDurationSeconds = 60 * 60

// Submitter sends the finished answer set to the server.
type Submitter interface {
	Submit(ctx context.Context, testID string, answers []model.SubmittedAnswer) (*model.Result, error)
}

// Summary is the confirmation snapshot shown before a final submit.
type Summary struct {
	Total         int
	Answered      int
	NotAnswered   int
	MarkedForView int
	NotVisited    int
}

// Session is a single student's in-memory attempt at one test. All methods
// are safe for concurrent use; navigation and answer methods are no-ops
// outside the in-progress phase.
type Session struct {
	mu sync.Mutex

	phase     Phase
	payload   *model.TestPayload
	submitter Submitter

	answers map[int]int // question index -> selected option
	marked  map[int]bool
	visited map[int]bool
	current int

	remaining    int // seconds
	timeExpired  bool
	hasSubmitted bool

	result *model.Result
}

// New creates a session in the loading phase.
func New(submitter Submitter) *Session {
	return &Session{
		phase:     PhaseLoading,
		submitter: submitter,
		answers:   make(map[int]int),
		marked:    make(map[int]bool),
		visited:   make(map[int]bool),
	}
}

// Start installs the fetched payload and begins the attempt. The countdown is
// seeded from the test duration, falling back to a default when the payload
// carries none. A nil or question-less payload keeps the session in the
// loading phase: there is nothing to attempt, and every other method assumes
// at least one question.
func (s *Session) Start(payload *model.TestPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLoading {
		return
	}
	if payload == nil || len(payload.Questions) == 0 {
		return
	}

	s.payload = payload
	s.remaining = payload.DurationMinutes * 60
	if s.remaining <= 0 {
		s.remaining = DefaultDurationSeconds
	}
	s.current = 0
	s.visited[0] = true
	s.phase = PhaseInProgress
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Remaining returns the countdown in seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Current returns the index of the question on screen.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Result returns the server result once the attempt completed.
func (s *Session) Result() *model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Answer returns the selected option for a question index, or -1.
func (s *Session) Answer(idx int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.answers[idx]; ok {
		return v
	}
	return -1
}

// IsMarked reports whether a question is flagged for review.
func (s *Session) IsMarked(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked[idx]
}

// SelectOption records the student's choice for the current question without
// moving off it.
func (s *Session) SelectOption(option int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return
	}
	q := s.payload.Questions[s.current]
	if option < 0 || option >= len(q.Options) {
		return
	}
	s.answers[s.current] = option
}

// SaveAndNext keeps the current selection, clears any review mark, and moves
// to the next question (clamped at the last one).
func (s *Session) SaveAndNext() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return
	}
	delete(s.marked, s.current)
	s.advanceLocked()
}

// MarkForReview flags the current question and moves on. Any selected answer
// stays recorded; a marked question still scores normally.
func (s *Session) MarkForReview() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return
	}
	s.marked[s.current] = true
	s.advanceLocked()
}

// ClearResponse removes the current question's selection.
func (s *Session) ClearResponse() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return
	}
	delete(s.answers, s.current)
}

// NavigateTo jumps to a question by index, clamping out-of-range targets.
func (s *Session) NavigateTo(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if max := len(s.payload.Questions) - 1; idx > max {
		idx = max
	}
	s.current = idx
	s.visited[idx] = true
}

func (s *Session) advanceLocked() {
	if s.current < len(s.payload.Questions)-1 {
		s.current++
	}
	s.visited[s.current] = true
}

// Tick advances the countdown by one second. When it reaches zero the session
// force-submits exactly once; later ticks are no-ops.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 || s.timeExpired {
		s.mu.Unlock()
		return
	}
	s.timeExpired = true
	s.mu.Unlock()

	// Time is up: the confirmation step is skipped.
	_ = s.ConfirmSubmit(ctx)
}

// InitiateSubmit returns the confirmation summary. It does not change phase;
// the caller follows up with ConfirmSubmit or keeps working.
func (s *Session) InitiateSubmit() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	if s.payload != nil {
		total = len(s.payload.Questions)
	}
	sum := Summary{Total: total}
	for i := 0; i < total; i++ {
		if _, ok := s.answers[i]; ok {
			sum.Answered++
		} else {
			sum.NotAnswered++
		}
		if s.marked[i] {
			sum.MarkedForView++
		}
		if !s.visited[i] {
			sum.NotVisited++
		}
	}
	return sum
}

// ConfirmSubmit sends the answers to the server. The submission gate admits
// exactly one in-flight attempt: concurrent calls and calls after completion
// return immediately. On failure the session returns to in-progress with all
// answers intact so the student can retry.
func (s *Session) ConfirmSubmit(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseInProgress || s.hasSubmitted {
		s.mu.Unlock()
		return nil
	}
	s.hasSubmitted = true
	s.phase = PhaseSubmitting

	// Answers go out in original question order, with nil for unanswered.
	answers := make([]model.SubmittedAnswer, len(s.payload.Questions))
	for i, q := range s.payload.Questions {
		answers[i] = model.SubmittedAnswer{QuestionID: q.ID.String()}
		if v, ok := s.answers[i]; ok {
			selected := v
			answers[i].SelectedIndex = &selected
		}
	}
	testID := s.payload.TestID.String()
	s.mu.Unlock()

	result, err := s.submitter.Submit(ctx, testID, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = PhaseInProgress
		s.hasSubmitted = false
		return err
	}
	s.result = result
	s.phase = PhaseCompleted
	return nil
}

// RequestExit reports whether leaving the exam screen is allowed. Exits are
// blocked while the attempt is live or a submission is in flight.
func (s *Session) RequestExit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase != PhaseInProgress && s.phase != PhaseSubmitting
}
