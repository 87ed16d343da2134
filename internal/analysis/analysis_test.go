package analysis

import (
	"testing"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
)

func mcq(correctIdx int) *model.Question {
	options := make([]model.Option, 4)
	for i := range options {
		options[i] = model.Option{Text: "option", IsCorrect: i == correctIdx}
	}
	return &model.Question{ID: uuid.New(), Text: "q", Options: options}
}

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestBuildFullReport(t *testing.T) {
	q1 := mcq(1)
	q2 := mcq(0)
	q3 := mcq(2)
	questions := map[string]*model.Question{
		q1.ID.String(): q1,
		q2.ID.String(): q2,
		q3.ID.String(): q3,
	}

	testID := uuid.New()
	test := &model.Test{ID: testID, Title: "Midterm", TotalMarks: 30, PassingMarks: 10}
	result := &model.Result{
		TestID:         &testID,
		Score:          1,
		TotalQuestions: 3,
		CorrectAnswers: 1,
		WrongAnswers:   1,
		// q1 correct, q2 incorrect, q3 skipped.
		Answers: []model.Answer{
			{QuestionID: idPtr(q1.ID), SelectedIndex: 1},
			{QuestionID: idPtr(q2.ID), SelectedIndex: 3},
			{QuestionID: idPtr(q3.ID), SelectedIndex: model.SkippedIndex},
		},
	}

	report := Build(result, test, questions)

	if report.TestTitle != "Midterm" || report.TestDeleted {
		t.Errorf("title = %q, deleted = %v", report.TestTitle, report.TestDeleted)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if report.Percentage < 33.3 || report.Percentage > 33.4 {
		t.Errorf("Percentage = %f", report.Percentage)
	}
	if !report.DetailAvailable || len(report.Rows) != 3 {
		t.Fatalf("DetailAvailable = %v, rows = %d", report.DetailAvailable, len(report.Rows))
	}

	wantVerdicts := []Verdict{VerdictCorrect, VerdictIncorrect, VerdictSkipped}
	for i, want := range wantVerdicts {
		if report.Rows[i].Verdict != want {
			t.Errorf("row %d verdict = %s, want %s", i, report.Rows[i].Verdict, want)
		}
	}

	if got := len(FilterRows(report, VerdictIncorrect)); got != 1 {
		t.Errorf("FilterRows(incorrect) = %d rows, want 1", got)
	}
}

func TestBuildDeletedTestUsesPlaceholder(t *testing.T) {
	result := &model.Result{
		TestID:         nil,
		Score:          2,
		TotalQuestions: 4,
		CorrectAnswers: 2,
		WrongAnswers:   1,
	}

	report := Build(result, nil, map[string]*model.Question{})

	if !report.TestDeleted {
		t.Error("TestDeleted should be set")
	}
	if report.TestTitle != PlaceholderTitle {
		t.Errorf("title = %q, want %q", report.TestTitle, PlaceholderTitle)
	}
	if report.TotalMarks != 0 || report.PassingMarks != 0 {
		t.Error("marks must zero out when the test is gone")
	}
	// The frozen score breakdown survives regardless.
	if report.Score != 2 || report.Skipped != 1 {
		t.Errorf("Score = %d, Skipped = %d", report.Score, report.Skipped)
	}
}

func TestBuildZeroQuestionsGuardsPercentage(t *testing.T) {
	result := &model.Result{TotalQuestions: 0}
	report := Build(result, nil, nil)
	if report.Percentage != 0 {
		t.Errorf("Percentage = %f, want 0", report.Percentage)
	}
}

func TestBuildSuppressesDetailOnMissingQuestion(t *testing.T) {
	q1 := mcq(0)
	deleted := uuid.New()

	result := &model.Result{
		Score:          1,
		TotalQuestions: 2,
		CorrectAnswers: 1,
		WrongAnswers:   0,
		Answers: []model.Answer{
			{QuestionID: idPtr(q1.ID), SelectedIndex: 0},
			{QuestionID: idPtr(deleted), SelectedIndex: model.SkippedIndex},
		},
	}

	report := Build(result, &model.Test{Title: "Quiz"}, map[string]*model.Question{
		q1.ID.String(): q1,
	})

	if report.DetailAvailable {
		t.Error("detail must be suppressed when any question is missing")
	}
	if len(report.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(report.Rows))
	}
	// Aggregates are untouched by the suppression.
	if report.Score != 1 || report.Skipped != 1 {
		t.Errorf("Score = %d, Skipped = %d", report.Score, report.Skipped)
	}
}

func TestBuildSuppressesDetailOnNilQuestionID(t *testing.T) {
	result := &model.Result{
		TotalQuestions: 1,
		Answers: []model.Answer{
			{QuestionID: nil, SelectedIndex: model.SkippedIndex},
		},
	}

	report := Build(result, &model.Test{Title: "Quiz"}, map[string]*model.Question{})
	if report.DetailAvailable {
		t.Error("a nil question reference must suppress the breakdown")
	}
}

func TestBuildRecomputesCorrectIndexFromOptions(t *testing.T) {
	// The stored answer picked index 2; the question's flags say 2 is right.
	q := mcq(2)
	result := &model.Result{
		TotalQuestions: 1,
		Score:          1,
		CorrectAnswers: 1,
		Answers: []model.Answer{
			{QuestionID: idPtr(q.ID), SelectedIndex: 2},
		},
	}

	report := Build(result, &model.Test{Title: "Quiz"}, map[string]*model.Question{
		q.ID.String(): q,
	})

	if !report.DetailAvailable {
		t.Fatal("detail expected")
	}
	if report.Rows[0].CorrectIndex != 2 {
		t.Errorf("CorrectIndex = %d, want 2", report.Rows[0].CorrectIndex)
	}
	if report.Rows[0].Verdict != VerdictCorrect {
		t.Errorf("verdict = %s, want correct", report.Rows[0].Verdict)
	}
}
