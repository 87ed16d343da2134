package scoring

import (
	"testing"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
)

func intPtr(v int) *int { return &v }

func mcq(id uuid.UUID, correctIdx, optionCount int) *model.Question {
	opts := make([]model.Option, optionCount)
	for i := range opts {
		opts[i] = model.Option{Text: "option"}
		if i == correctIdx {
			opts[i].IsCorrect = true
		}
	}
	return &model.Question{ID: id, Options: opts}
}

func mapLookup(questions map[string]*model.Question) Lookup {
	return func(id string) (*model.Question, bool) {
		q, ok := questions[id]
		return q, ok
	}
}

func TestGrade_EndToEndScenario(t *testing.T) {
	// Three questions: Q1 correct at index 2, Q2 correct at index 0,
	// Q3 deleted before submission.
	q1 := uuid.New()
	q2 := uuid.New()
	q3 := uuid.New() // deleted

	lookup := mapLookup(map[string]*model.Question{
		q1.String(): mcq(q1, 2, 4),
		q2.String(): mcq(q2, 0, 4),
	})

	got := Grade([]model.SubmittedAnswer{
		{QuestionID: q1.String(), SelectedIndex: intPtr(2)},
		{QuestionID: q2.String(), SelectedIndex: intPtr(1)},
		{QuestionID: q3.String(), SelectedIndex: intPtr(0)},
	}, lookup)

	if got.Score != 1 || got.CorrectAnswers != 1 || got.WrongAnswers != 1 {
		t.Fatalf("score=%d correct=%d wrong=%d, want 1/1/1", got.Score, got.CorrectAnswers, got.WrongAnswers)
	}
	if got.TotalQuestions != 3 {
		t.Fatalf("TotalQuestions = %d, want 3", got.TotalQuestions)
	}
	if len(got.Answers) != 3 {
		t.Fatalf("len(Answers) = %d, want 3", len(got.Answers))
	}

	// The deleted-question answer degrades to skipped, keeping the dangling id.
	last := got.Answers[2]
	if last.SelectedIndex != model.SkippedIndex {
		t.Errorf("deleted question SelectedIndex = %d, want %d", last.SelectedIndex, model.SkippedIndex)
	}
	if last.QuestionID == nil || *last.QuestionID != q3 {
		t.Errorf("deleted question reference not preserved")
	}
}

func TestGrade_NilIndexNormalizedToSkipped(t *testing.T) {
	q1 := uuid.New()
	q2 := uuid.New()
	q3 := uuid.New()
	lookup := mapLookup(map[string]*model.Question{
		q1.String(): mcq(q1, 0, 3),
		q2.String(): mcq(q2, 1, 3),
		q3.String(): mcq(q3, 2, 3),
	})

	got := Grade([]model.SubmittedAnswer{
		{QuestionID: q1.String(), SelectedIndex: intPtr(0)},
		{QuestionID: q2.String()}, // omitted entirely
		{QuestionID: q3.String(), SelectedIndex: intPtr(2)},
	}, lookup)

	if got.TotalQuestions != 3 {
		t.Fatalf("TotalQuestions = %d, want 3", got.TotalQuestions)
	}
	if got.Answers[1].SelectedIndex != model.SkippedIndex {
		t.Errorf("skipped answer persisted as %d, want %d", got.Answers[1].SelectedIndex, model.SkippedIndex)
	}
	if got.CorrectAnswers != 2 || got.WrongAnswers != 0 {
		t.Errorf("correct=%d wrong=%d, want 2/0 (skip counts toward neither)", got.CorrectAnswers, got.WrongAnswers)
	}
}

func TestGrade_ScoreConservation(t *testing.T) {
	qs := make(map[string]*model.Question)
	var submitted []model.SubmittedAnswer
	for i := 0; i < 10; i++ {
		id := uuid.New()
		qs[id.String()] = mcq(id, i%4, 4)
		var sel *int
		switch i % 3 {
		case 0:
			sel = intPtr(i % 4) // correct
		case 1:
			sel = intPtr((i + 1) % 4) // wrong
		}
		submitted = append(submitted, model.SubmittedAnswer{QuestionID: id.String(), SelectedIndex: sel})
	}

	got := Grade(submitted, mapLookup(qs))
	if got.CorrectAnswers+got.WrongAnswers > got.TotalQuestions {
		t.Fatalf("correct+wrong (%d) exceeds total (%d)", got.CorrectAnswers+got.WrongAnswers, got.TotalQuestions)
	}
	if got.Score != got.CorrectAnswers {
		t.Fatalf("score (%d) != correct (%d) under 1-point policy", got.Score, got.CorrectAnswers)
	}
}

func TestGrade_OutOfRangeIndexCountsAsWrong(t *testing.T) {
	id := uuid.New()
	lookup := mapLookup(map[string]*model.Question{id.String(): mcq(id, 0, 3)})

	for _, idx := range []int{3, 99, -5} {
		got := Grade([]model.SubmittedAnswer{{QuestionID: id.String(), SelectedIndex: intPtr(idx)}}, lookup)
		if got.WrongAnswers != 1 || got.CorrectAnswers != 0 {
			t.Errorf("index %d: correct=%d wrong=%d, want 0/1", idx, got.CorrectAnswers, got.WrongAnswers)
		}
	}
}

func TestGrade_ExplicitSkipSentinel(t *testing.T) {
	id := uuid.New()
	lookup := mapLookup(map[string]*model.Question{id.String(): mcq(id, 0, 3)})

	got := Grade([]model.SubmittedAnswer{{QuestionID: id.String(), SelectedIndex: intPtr(model.SkippedIndex)}}, lookup)
	if got.CorrectAnswers != 0 || got.WrongAnswers != 0 {
		t.Fatalf("explicit -1: correct=%d wrong=%d, want 0/0", got.CorrectAnswers, got.WrongAnswers)
	}
	if got.Answers[0].SelectedIndex != model.SkippedIndex {
		t.Fatalf("explicit -1 persisted as %d", got.Answers[0].SelectedIndex)
	}
}

func TestGrade_EmptyQuestionIDDropped(t *testing.T) {
	id := uuid.New()
	lookup := mapLookup(map[string]*model.Question{id.String(): mcq(id, 1, 3)})

	got := Grade([]model.SubmittedAnswer{
		{QuestionID: "", SelectedIndex: intPtr(1)},
		{QuestionID: id.String(), SelectedIndex: intPtr(1)},
	}, lookup)

	// The malformed entry is dropped from the answers but still counted in
	// the original sequence length.
	if got.TotalQuestions != 2 {
		t.Fatalf("TotalQuestions = %d, want 2", got.TotalQuestions)
	}
	if len(got.Answers) != 1 {
		t.Fatalf("len(Answers) = %d, want 1", len(got.Answers))
	}
	if got.Score != 1 {
		t.Fatalf("Score = %d, want 1", got.Score)
	}
}

func TestGrade_MultipleCorrectOptionsFirstWins(t *testing.T) {
	id := uuid.New()
	q := &model.Question{ID: id, Options: []model.Option{
		{Text: "a", IsCorrect: true},
		{Text: "b", IsCorrect: true},
		{Text: "c"},
	}}
	lookup := mapLookup(map[string]*model.Question{id.String(): q})

	// Either flagged option earns the point; scoring checks the selected
	// option's own flag, not a single canonical index.
	for _, idx := range []int{0, 1} {
		got := Grade([]model.SubmittedAnswer{{QuestionID: id.String(), SelectedIndex: intPtr(idx)}}, lookup)
		if got.Score != 1 {
			t.Errorf("index %d on doubly-flagged question scored %d, want 1", idx, got.Score)
		}
	}
}
