package service

import (
	"context"
	"errors"
	"testing"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeTestGetter struct {
	tests map[uuid.UUID]*model.Test
}

func (f *fakeTestGetter) GetByID(_ context.Context, id uuid.UUID) (*model.Test, error) {
	t, ok := f.tests[id]
	if !ok {
		return nil, ErrTestNotFound
	}
	return t, nil
}

type fakeQuestionResolver struct {
	questions map[string]*model.Question
}

func (f *fakeQuestionResolver) GetByIDs(_ context.Context, ids []uuid.UUID) (map[string]*model.Question, error) {
	found := make(map[string]*model.Question)
	for _, id := range ids {
		if q, ok := f.questions[id.String()]; ok {
			found[id.String()] = q
		}
	}
	return found, nil
}

type fakeResultCreator struct {
	created []*model.Result
	err     error
}

func (f *fakeResultCreator) Create(_ context.Context, res *model.Result) error {
	if f.err != nil {
		return f.err
	}
	res.ID = uuid.New()
	f.created = append(f.created, res)
	return nil
}

type fakeNotificationCreator struct {
	created []*model.Notification
}

func (f *fakeNotificationCreator) Create(_ context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	f.created = append(f.created, n)
	return nil
}

type fakeQueue struct {
	jobs []model.LeaderboardJob
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, job model.LeaderboardJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func question(testID uuid.UUID, correctIdx, optionCount int) *model.Question {
	options := make([]model.Option, optionCount)
	for i := range options {
		options[i] = model.Option{Text: "option", IsCorrect: i == correctIdx}
	}
	return &model.Question{ID: uuid.New(), TestID: testID, Text: "q", Options: options}
}

func newPipeline(tests *fakeTestGetter, questions *fakeQuestionResolver) (*SubmissionService, *fakeResultCreator, *fakeNotificationCreator, *fakeQueue) {
	results := &fakeResultCreator{}
	notifications := &fakeNotificationCreator{}
	queue := &fakeQueue{}
	svc := NewSubmissionService(tests, questions, results, notifications, queue, zerolog.Nop())
	return svc, results, notifications, queue
}

func TestSubmitUnknownTestWritesNothing(t *testing.T) {
	svc, results, notifications, queue := newPipeline(
		&fakeTestGetter{tests: map[uuid.UUID]*model.Test{}},
		&fakeQuestionResolver{questions: map[string]*model.Question{}},
	)

	_, err := svc.Submit(context.Background(), uuid.New(), &model.SubmitExamRequest{
		TestID: uuid.New().String(),
		Answers: []model.SubmittedAnswer{
			{QuestionID: uuid.New().String(), SelectedIndex: intPtrSvc(0)},
		},
	})

	if !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
	if len(results.created) != 0 {
		t.Errorf("no result should be persisted, got %d", len(results.created))
	}
	if len(queue.jobs) != 0 || len(notifications.created) != 0 {
		t.Error("no side effects expected for a failed submission")
	}
}

func TestSubmitScoresAndFansOut(t *testing.T) {
	testID := uuid.New()
	studentID := uuid.New()

	q1 := question(testID, 1, 4) // answered correctly
	q2 := question(testID, 0, 4) // answered wrong
	deletedID := uuid.New()      // deleted after the attempt started

	svc, results, notifications, queue := newPipeline(
		&fakeTestGetter{tests: map[uuid.UUID]*model.Test{
			testID: {ID: testID, Title: "Midterm", DurationMinutes: 30},
		}},
		&fakeQuestionResolver{questions: map[string]*model.Question{
			q1.ID.String(): q1,
			q2.ID.String(): q2,
		}},
	)

	result, err := svc.Submit(context.Background(), studentID, &model.SubmitExamRequest{
		TestID: testID.String(),
		Answers: []model.SubmittedAnswer{
			{QuestionID: q1.ID.String(), SelectedIndex: intPtrSvc(1)},
			{QuestionID: q2.ID.String(), SelectedIndex: intPtrSvc(3)},
			{QuestionID: deletedID.String(), SelectedIndex: intPtrSvc(2)},
			{QuestionID: "", SelectedIndex: nil},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Score != 1 || result.CorrectAnswers != 1 || result.WrongAnswers != 1 {
		t.Errorf("score breakdown = %d/%d/%d, want 1/1/1",
			result.Score, result.CorrectAnswers, result.WrongAnswers)
	}
	if result.TotalQuestions != 4 {
		t.Errorf("TotalQuestions = %d, want 4", result.TotalQuestions)
	}
	if result.StudentID != studentID {
		t.Errorf("StudentID = %s, want %s", result.StudentID, studentID)
	}
	if result.TestID == nil || *result.TestID != testID {
		t.Errorf("TestID = %v, want %s", result.TestID, testID)
	}

	// The deleted question's answer survives with its id and the skip sentinel.
	var dangling *model.Answer
	for i := range result.Answers {
		if result.Answers[i].QuestionID != nil && *result.Answers[i].QuestionID == deletedID {
			dangling = &result.Answers[i]
		}
	}
	if dangling == nil {
		t.Fatal("dangling answer missing from persisted result")
	}
	if dangling.SelectedIndex != model.SkippedIndex {
		t.Errorf("dangling SelectedIndex = %d, want %d", dangling.SelectedIndex, model.SkippedIndex)
	}

	if len(results.created) != 1 {
		t.Fatalf("results persisted = %d, want 1", len(results.created))
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("leaderboard jobs = %d, want 1", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.StudentID != studentID || job.TestID != testID || job.Score != 1 {
		t.Errorf("unexpected leaderboard job %+v", job)
	}
	if len(notifications.created) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications.created))
	}
	if notifications.created[0].StudentID != studentID {
		t.Errorf("notification addressed to %s, want %s",
			notifications.created[0].StudentID, studentID)
	}
}

func TestSubmitNormalizesSkips(t *testing.T) {
	testID := uuid.New()
	q := question(testID, 0, 3)

	svc, results, _, _ := newPipeline(
		&fakeTestGetter{tests: map[uuid.UUID]*model.Test{testID: {ID: testID, Title: "Quiz"}}},
		&fakeQuestionResolver{questions: map[string]*model.Question{q.ID.String(): q}},
	)

	result, err := svc.Submit(context.Background(), uuid.New(), &model.SubmitExamRequest{
		TestID: testID.String(),
		Answers: []model.SubmittedAnswer{
			{QuestionID: q.ID.String(), SelectedIndex: nil},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Score != 0 || result.CorrectAnswers != 0 || result.WrongAnswers != 0 {
		t.Errorf("a skipped answer must not move any tally, got %d/%d/%d",
			result.Score, result.CorrectAnswers, result.WrongAnswers)
	}
	if len(result.Answers) != 1 || result.Answers[0].SelectedIndex != model.SkippedIndex {
		t.Errorf("persisted answers = %+v, want one entry with index %d",
			result.Answers, model.SkippedIndex)
	}
	if len(results.created) != 1 {
		t.Errorf("results persisted = %d, want 1", len(results.created))
	}
}

func TestSubmitPersistFailureReturnsError(t *testing.T) {
	testID := uuid.New()
	svc, results, notifications, queue := newPipeline(
		&fakeTestGetter{tests: map[uuid.UUID]*model.Test{testID: {ID: testID, Title: "Quiz"}}},
		&fakeQuestionResolver{questions: map[string]*model.Question{}},
	)
	results.err = errors.New("connection refused")

	_, err := svc.Submit(context.Background(), uuid.New(), &model.SubmitExamRequest{
		TestID:  testID.String(),
		Answers: []model.SubmittedAnswer{},
	})
	if err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if len(queue.jobs) != 0 || len(notifications.created) != 0 {
		t.Error("side effects must not run when persistence fails")
	}
}

func intPtrSvc(v int) *int { return &v }
