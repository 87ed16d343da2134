// Package scoring grades a submitted answer set against the live question
// store. Grading always re-reads correctness from the authoritative questions
// at submission time; nothing the client claims about correctness is trusted.
package scoring

import (
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
)

// Lookup resolves a question id to its live record. The second return value
// is false when the question no longer exists (deleted after authoring).
type Lookup func(questionID string) (*model.Question, bool)

// Breakdown is the outcome of grading one submission. Answers holds the
// normalized per-question records in original submission order; entries whose
// question id was empty on the wire are dropped from Answers but still counted
// in TotalQuestions.
type Breakdown struct {
	Score          int
	TotalQuestions int
	CorrectAnswers int
	WrongAnswers   int
	Answers        []model.Answer
}

// Grade scores each submitted answer independently, order-preserving:
//
//   - empty question id: the entry contributes to no tally and is dropped
//     from the normalized answers (data-integrity fallback, not a normal path)
//   - question deleted since authoring: persisted as skipped, never an error
//   - nil selected index: normalized to model.SkippedIndex
//   - out-of-range index: counts as wrong, not an error
//
// One point per correct answer; skipped answers are neither correct nor wrong.
func Grade(submitted []model.SubmittedAnswer, lookup Lookup) Breakdown {
	b := Breakdown{
		TotalQuestions: len(submitted),
		Answers:        make([]model.Answer, 0, len(submitted)),
	}

	for _, sub := range submitted {
		if sub.QuestionID == "" {
			continue
		}

		q, ok := lookup(sub.QuestionID)
		if !ok || q == nil {
			// Question was deleted between authoring and submission.
			// Degrades to skipped-by-necessity; the dangling reference is
			// preserved so historical results keep their original shape.
			b.Answers = append(b.Answers, model.Answer{
				QuestionID:    danglingRef(sub.QuestionID),
				SelectedIndex: model.SkippedIndex,
			})
			continue
		}

		idx := model.SkippedIndex
		if sub.SelectedIndex != nil {
			idx = *sub.SelectedIndex
		}

		qID := q.ID
		b.Answers = append(b.Answers, model.Answer{
			QuestionID:    &qID,
			SelectedIndex: idx,
		})

		if idx == model.SkippedIndex {
			continue
		}

		if idx >= 0 && idx < len(q.Options) && q.Options[idx].IsCorrect {
			b.CorrectAnswers++
			b.Score++
		} else {
			b.WrongAnswers++
		}
	}

	return b
}

// danglingRef keeps a well-formed but unresolvable question id on the record.
// Unparseable ids are stored as nil.
func danglingRef(raw string) *uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
