package service

import (
	"context"
	"errors"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ErrResultNotFound is returned when a result id resolves to nothing.
var ErrResultNotFound = errors.New("result not found")

// ResultSummary pairs a stored result with its test, which may be nil when
// the test was deleted after submission.
type ResultSummary struct {
	Result model.Result `json:"result"`
	Test   *model.Test  `json:"test"`
}

// ResultService reads stored results and resolves their references. Deleted
// tests and questions degrade the detail gracefully instead of erroring.
type ResultService struct {
	resultRepo   *repository.ResultRepository
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	log          zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(
	resultRepo *repository.ResultRepository,
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		resultRepo:   resultRepo,
		testRepo:     testRepo,
		questionRepo: questionRepo,
		log:          log.With().Str("component", "result_service").Logger(),
	}
}

// GetDetail loads a result with its test and surviving questions resolved.
// The result must belong to the requesting student.
func (s *ResultService) GetDetail(ctx context.Context, resultID, studentID uuid.UUID) (*model.ResultDetail, error) {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	if result.StudentID != studentID {
		// Hide existence from other students.
		return nil, ErrResultNotFound
	}

	detail := &model.ResultDetail{
		Result:    result,
		Questions: map[string]*model.Question{},
	}

	if result.TestID != nil {
		test, err := s.testRepo.GetByID(ctx, *result.TestID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		detail.Test = test // nil when the row is gone
	}

	ids := make([]uuid.UUID, 0, len(result.Answers))
	for _, a := range result.Answers {
		if a.QuestionID != nil {
			ids = append(ids, *a.QuestionID)
		}
	}
	questions, err := s.questionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	detail.Questions = questions

	return detail, nil
}

// ListByStudent returns a student's results newest first, each with its test
// resolved or nil when deleted.
func (s *ResultService) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]ResultSummary, error) {
	results, err := s.resultRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ResultSummary, 0, len(results))
	for i := range results {
		summary := ResultSummary{Result: results[i]}
		if results[i].TestID != nil {
			test, err := s.testRepo.GetByID(ctx, *results[i].TestID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
			summary.Test = test
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListByTest returns a test's results for the owning admin's report view.
func (s *ResultService) ListByTest(ctx context.Context, testID, adminID uuid.UUID, limit, offset int) ([]model.Result, int, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrTestNotFound
		}
		return nil, 0, err
	}
	if test.AdminID != adminID {
		return nil, 0, ErrNotTestOwner
	}

	results, total, err := s.resultRepo.ListByTestPaginated(ctx, testID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if results == nil {
		results = []model.Result{}
	}
	return results, total, nil
}
