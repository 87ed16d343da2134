package model

import (
	"github.com/google/uuid"
)

// Option is a single answer choice within a question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question represents a single multiple-choice item belonging to one test.
type Question struct {
	ID       uuid.UUID `json:"id"`
	TestID   uuid.UUID `json:"test_id"`
	Text     string    `json:"question"`
	Options  []Option  `json:"options"`
	OrderNum int       `json:"order_num"`
}

// CorrectIndex returns the index of the first option flagged correct, or -1
// if none is. Callers must never trust a precomputed index from the wire.
func (q *Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if opt.IsCorrect {
			return i
		}
	}
	return -1
}

// OptionTexts returns the option texts with correctness stripped.
func (q *Question) OptionTexts() []string {
	texts := make([]string, len(q.Options))
	for i, opt := range q.Options {
		texts[i] = opt.Text
	}
	return texts
}

// AddQuestionRequest is the payload for adding a question to a test.
type AddQuestionRequest struct {
	Text     string          `json:"question" binding:"required,min=1,max=2000"`
	Options  []OptionRequest `json:"options" binding:"required,min=2,max=10,dive"`
	OrderNum int             `json:"order_num" binding:"min=0"`
}

// OptionRequest is one option within an AddQuestionRequest.
type OptionRequest struct {
	Text      string `json:"text" binding:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing a test's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}
