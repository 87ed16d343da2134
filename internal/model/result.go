package model

import (
	"time"

	"github.com/google/uuid"
)

// SkippedIndex is the sentinel persisted for an unanswered question. Wire
// values of null/absent are normalized to it before any Result is written.
const SkippedIndex = -1

// Answer is one entry within a Result. QuestionID becomes nil only when the
// referenced question is deleted after the result was created; SelectedIndex
// is always a concrete integer >= 0 or exactly SkippedIndex once persisted.
type Answer struct {
	QuestionID    *uuid.UUID `json:"question_id"`
	SelectedIndex int        `json:"selected_index"`
}

// Result is an immutable record of one student's scored attempt at one test.
// TestID becomes nil after the owning test is deleted; the score breakdown is
// frozen at submission time and never recomputed.
type Result struct {
	ID             uuid.UUID  `json:"id"`
	StudentID      uuid.UUID  `json:"student_id"`
	TestID         *uuid.UUID `json:"test_id"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	WrongAnswers   int        `json:"wrong_answers"`
	Answers        []Answer   `json:"answers"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SubmittedAnswer is one client-supplied answer before normalization.
// SelectedIndex nil means the question was skipped.
type SubmittedAnswer struct {
	QuestionID    string `json:"question_id"`
	SelectedIndex *int   `json:"selected_index"`
}

// SubmitExamRequest is the payload for submitting a finished attempt. The
// student identity comes from the authenticated token, not the body.
type SubmitExamRequest struct {
	TestID  string            `json:"test_id" binding:"required,uuid"`
	Answers []SubmittedAnswer `json:"answers"`
}

// ResultDetail is a Result with its references resolved where still possible.
// Test is nil when the test was deleted; Questions holds only the questions
// that still exist, keyed by id.
type ResultDetail struct {
	Result    *Result              `json:"result"`
	Test      *Test                `json:"test"`
	Questions map[string]*Question `json:"questions"`
}
