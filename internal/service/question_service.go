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

// Question errors.
var (
	ErrAmbiguousCorrect  = errors.New("question must have exactly one correct option")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrQuestionWrongTest = errors.New("question does not belong to this test")
)

// QuestionService manages question authoring. Every write path enforces the
// single-correct-option invariant before touching PostgreSQL, so the scoring
// engine never has to disambiguate.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	testService  *TestService
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	testService *TestService,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		testService:  testService,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// ListByTest returns a test's questions in display order, with correctness
// flags included. Admin-only read path.
func (s *QuestionService) ListByTest(ctx context.Context, testID, adminID uuid.UUID) ([]model.Question, error) {
	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.AdminID != adminID {
		return nil, ErrNotTestOwner
	}

	questions, err := s.questionRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Add appends a question to a test owned by the given admin.
func (s *QuestionService) Add(ctx context.Context, testID, adminID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.AdminID != adminID {
		return nil, ErrNotTestOwner
	}

	question := buildQuestion(testID, req)
	if err := validateSingleCorrect(question.Options); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}

	s.refreshCache(ctx, test)
	return question, nil
}

// Replace swaps out a test's entire question set in one transaction.
func (s *QuestionService) Replace(ctx context.Context, testID, adminID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.AdminID != adminID {
		return nil, ErrNotTestOwner
	}

	questions := make([]model.Question, len(req.Questions))
	for i := range req.Questions {
		q := buildQuestion(testID, &req.Questions[i])
		if err := validateSingleCorrect(q.Options); err != nil {
			return nil, err
		}
		questions[i] = *q
	}

	if err := s.questionRepo.ReplaceForTest(ctx, testID, questions); err != nil {
		return nil, err
	}

	s.refreshCache(ctx, test)
	return questions, nil
}

// Delete removes a single question. Already-submitted results that reference
// the deleted question keep their stored answers; the scoring pipeline and
// analysis layer tolerate the dangling reference.
func (s *QuestionService) Delete(ctx context.Context, testID, questionID, adminID uuid.UUID) error {
	test, err := s.testService.GetByID(ctx, testID)
	if err != nil {
		return err
	}
	if test.AdminID != adminID {
		return ErrNotTestOwner
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return err
	}
	if question.TestID != testID {
		return ErrQuestionWrongTest
	}

	if err := s.questionRepo.Delete(ctx, questionID); err != nil {
		return err
	}

	s.log.Info().
		Str("question_id", questionID.String()).
		Str("test_id", testID.String()).
		Msg("Question deleted")

	s.refreshCache(ctx, test)
	return nil
}

// refreshCache rewarms the student payload for active tests so cached
// questions never drift from PostgreSQL. Best-effort.
func (s *QuestionService) refreshCache(ctx context.Context, test *model.Test) {
	if !test.IsActive {
		return
	}
	if err := s.testService.WarmTestCache(ctx, test); err != nil {
		s.log.Warn().Err(err).Str("test_id", test.ID.String()).Msg("cache refresh failed")
	}
}

func buildQuestion(testID uuid.UUID, req *model.AddQuestionRequest) *model.Question {
	options := make([]model.Option, len(req.Options))
	for i, o := range req.Options {
		options[i] = model.Option{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	return &model.Question{
		TestID:   testID,
		Text:     req.Text,
		Options:  options,
		OrderNum: req.OrderNum,
	}
}

func validateSingleCorrect(options []model.Option) error {
	correct := 0
	for _, o := range options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return ErrAmbiguousCorrect
	}
	return nil
}
