// Package analysis reconciles a stored result with whatever its referenced
// test and questions look like now. Deleted references degrade the report
// instead of failing it.
package analysis

import (
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
)

// Verdict classifies one answered question.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictSkipped   Verdict = "skipped"
)

// PlaceholderTitle is shown when the test was deleted after submission.
const PlaceholderTitle = "Test unavailable"

// Row is one question's line in the per-question breakdown.
type Row struct {
	QuestionID    uuid.UUID `json:"question_id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	SelectedIndex int       `json:"selected_index"`
	CorrectIndex  int       `json:"correct_index"`
	Verdict       Verdict   `json:"verdict"`
}

// Report is the reconciled view of a result. When any referenced question no
// longer exists the whole per-question breakdown is withheld: a partial
// breakdown would misstate what the student was actually asked.
type Report struct {
	TestTitle    string `json:"test_title"`
	TestDeleted  bool   `json:"test_deleted"`
	TotalMarks   int    `json:"total_marks"`
	PassingMarks int    `json:"passing_marks"`

	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	WrongAnswers   int     `json:"wrong_answers"`
	Skipped        int     `json:"skipped"`
	Percentage     float64 `json:"percentage"`

	DetailAvailable bool  `json:"detail_available"`
	Rows            []Row `json:"rows,omitempty"`
}

// Build assembles a report from a stored result, the test as it exists now
// (nil if deleted), and the surviving questions keyed by id string.
func Build(result *model.Result, test *model.Test, questions map[string]*model.Question) Report {
	report := Report{
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
		WrongAnswers:   result.WrongAnswers,
	}

	if test != nil {
		report.TestTitle = test.Title
		report.TotalMarks = test.TotalMarks
		report.PassingMarks = test.PassingMarks
	} else {
		report.TestTitle = PlaceholderTitle
		report.TestDeleted = true
	}

	report.Skipped = result.TotalQuestions - result.CorrectAnswers - result.WrongAnswers
	if report.Skipped < 0 {
		report.Skipped = 0
	}
	if result.TotalQuestions > 0 {
		report.Percentage = float64(result.Score) / float64(result.TotalQuestions) * 100
	}

	report.DetailAvailable = true
	rows := make([]Row, 0, len(result.Answers))
	for _, ans := range result.Answers {
		if ans.QuestionID == nil {
			report.DetailAvailable = false
			break
		}
		q, ok := questions[ans.QuestionID.String()]
		if !ok {
			report.DetailAvailable = false
			break
		}

		// Correctness comes from the options as stored, never from a cached
		// index that may predate an edit.
		correctIdx := q.CorrectIndex()
		verdict := VerdictSkipped
		switch {
		case ans.SelectedIndex == model.SkippedIndex:
			verdict = VerdictSkipped
		case ans.SelectedIndex == correctIdx:
			verdict = VerdictCorrect
		default:
			verdict = VerdictIncorrect
		}

		rows = append(rows, Row{
			QuestionID:    *ans.QuestionID,
			Question:      q.Text,
			Options:       q.OptionTexts(),
			SelectedIndex: ans.SelectedIndex,
			CorrectIndex:  correctIdx,
			Verdict:       verdict,
		})
	}

	if report.DetailAvailable {
		report.Rows = rows
	}
	return report
}

// FilterRows returns the rows matching one verdict, for the tabbed review UI.
func FilterRows(report Report, verdict Verdict) []Row {
	filtered := make([]Row, 0, len(report.Rows))
	for _, row := range report.Rows {
		if row.Verdict == verdict {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
