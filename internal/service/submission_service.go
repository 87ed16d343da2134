package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examlet/examlet-backend/internal/config"
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Narrow dependencies so the scoring pipeline can be tested against fakes.
type testGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
}

type questionResolver interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[string]*model.Question, error)
}

type resultCreator interface {
	Create(ctx context.Context, res *model.Result) error
}

type notificationCreator interface {
	Create(ctx context.Context, n *model.Notification) error
}

type leaderboardEnqueuer interface {
	Enqueue(ctx context.Context, job model.LeaderboardJob) error
}

// LeaderboardQueue pushes scored attempts onto the Redis list consumed by the
// leaderboard worker.
type LeaderboardQueue struct {
	rdb *redis.Client
}

// NewLeaderboardQueue creates a LeaderboardQueue.
func NewLeaderboardQueue(rdb *redis.Client) *LeaderboardQueue {
	return &LeaderboardQueue{rdb: rdb}
}

// Enqueue serializes a job and pushes it to the worker queue.
func (q *LeaderboardQueue) Enqueue(ctx context.Context, job model.LeaderboardJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.rdb.LPush(ctx, config.WorkerKey.PersistLeaderboardQueue, payload).Err()
}

// SubmissionService runs the exam submission pipeline: validate the test
// exists, score the answers against whatever questions still exist, persist
// the immutable result, then hand off the side effects (leaderboard,
// notification).
type SubmissionService struct {
	tests         testGetter
	questions     questionResolver
	results       resultCreator
	notifications notificationCreator
	queue         leaderboardEnqueuer
	log           zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	tests testGetter,
	questions questionResolver,
	results resultCreator,
	notifications notificationCreator,
	queue leaderboardEnqueuer,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		tests:         tests,
		questions:     questions,
		results:       results,
		notifications: notifications,
		queue:         queue,
		log:           log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit scores and persists one attempt. A missing test aborts the whole
// pipeline with ErrTestNotFound and nothing is written. Individual deleted
// questions never abort: they score as skipped and keep their stored id.
func (s *SubmissionService) Submit(ctx context.Context, studentID uuid.UUID, req *model.SubmitExamRequest) (*model.Result, error) {
	testID, err := uuid.Parse(req.TestID)
	if err != nil {
		return nil, ErrTestNotFound
	}

	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	// Resolve the surviving questions in one batch. Unparseable ids are left
	// out of the query; the grader treats them as unresolvable anyway.
	ids := make([]uuid.UUID, 0, len(req.Answers))
	for _, a := range req.Answers {
		if id, perr := uuid.Parse(a.QuestionID); perr == nil {
			ids = append(ids, id)
		}
	}
	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve questions: %w", err)
	}

	breakdown := scoring.Grade(req.Answers, func(questionID string) (*model.Question, bool) {
		q, ok := questions[questionID]
		return q, ok
	})

	result := &model.Result{
		StudentID:      studentID,
		TestID:         &test.ID,
		Score:          breakdown.Score,
		TotalQuestions: breakdown.TotalQuestions,
		CorrectAnswers: breakdown.CorrectAnswers,
		WrongAnswers:   breakdown.WrongAnswers,
		Answers:        breakdown.Answers,
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	// Side effects are best-effort: the student already has their result.
	if err := s.queue.Enqueue(ctx, model.LeaderboardJob{
		StudentID: studentID,
		TestID:    test.ID,
		Score:     breakdown.Score,
	}); err != nil {
		s.log.Error().Err(err).
			Str("result_id", result.ID.String()).
			Msg("Failed to enqueue leaderboard job")
	}

	notification := &model.Notification{
		StudentID: studentID,
		Title:     "Exam submitted",
		Body: fmt.Sprintf("Your attempt at %q was received. Score: %d/%d.",
			test.Title, breakdown.Score, breakdown.TotalQuestions),
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.log.Error().Err(err).
			Str("result_id", result.ID.String()).
			Msg("Failed to create submission notification")
	}

	s.log.Info().
		Str("result_id", result.ID.String()).
		Str("student_id", studentID.String()).
		Str("test_id", test.ID.String()).
		Int("score", breakdown.Score).
		Int("total", breakdown.TotalQuestions).
		Msg("Submission scored")

	return result, nil
}
