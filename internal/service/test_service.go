package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examlet/examlet-backend/internal/config"
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/repository"
	"github.com/examlet/examlet-backend/internal/response"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrTestNotFound  = errors.New("test not found")
	ErrNotTestOwner  = errors.New("not the owner of this test")
	ErrNoQuestions   = errors.New("test has no questions")
	ErrTestNotActive = errors.New("test is not active")
)

// TestService handles test business logic and the Redis payload cache. The
// cached payload is the only question read path exposed to students, and it
// never carries correctness flags.
type TestService struct {
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *TestService {
	return &TestService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "test_service").Logger(),
	}
}

// GetByID retrieves a test by id, mapping missing rows to ErrTestNotFound.
func (s *TestService) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	return test, nil
}

// ListActive returns the tests visible to students.
func (s *TestService) ListActive(ctx context.Context) ([]model.Test, error) {
	tests, err := s.testRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if tests == nil {
		tests = []model.Test{}
	}
	return tests, nil
}

// ListByAdmin retrieves an admin's tests with pagination.
func (s *TestService) ListByAdmin(ctx context.Context, adminID uuid.UUID, page, perPage int) ([]model.Test, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	tests, total, err := s.testRepo.ListByAdminPaginated(ctx, adminID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if tests == nil {
		tests = []model.Test{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return tests, pagination, nil
}

// Create inserts a new test, inactive until published.
func (s *TestService) Create(ctx context.Context, test *model.Test) error {
	test.IsActive = false
	return s.testRepo.Create(ctx, test)
}

// Update modifies a test owned by the given admin and refreshes the cached
// payload if one exists.
func (s *TestService) Update(ctx context.Context, adminID uuid.UUID, test *model.Test) error {
	existing, err := s.GetByID(ctx, test.ID)
	if err != nil {
		return err
	}
	if existing.AdminID != adminID {
		return ErrNotTestOwner
	}
	if err := s.testRepo.Update(ctx, test); err != nil {
		return err
	}

	// Keep the student payload consistent if it was already cached.
	if test.IsActive {
		if err := s.WarmTestCache(ctx, test); err != nil && !errors.Is(err, ErrNoQuestions) {
			s.log.Warn().Err(err).Str("test_id", test.ID.String()).Msg("cache refresh failed")
		}
	}
	return nil
}

// Publish activates a test and caches the student payload in Redis.
func (s *TestService) Publish(ctx context.Context, testID, adminID uuid.UUID) error {
	test, err := s.GetByID(ctx, testID)
	if err != nil {
		return err
	}
	if test.AdminID != adminID {
		return ErrNotTestOwner
	}

	if err := s.WarmTestCache(ctx, test); err != nil {
		return err
	}

	if err := s.testRepo.SetActive(ctx, testID, true); err != nil {
		return fmt.Errorf("activate test: %w", err)
	}

	s.log.Info().Str("test_id", testID.String()).Msg("Test published")
	return nil
}

// Deactivate hides a test from student listings and drops the cached payload.
func (s *TestService) Deactivate(ctx context.Context, testID, adminID uuid.UUID) error {
	test, err := s.GetByID(ctx, testID)
	if err != nil {
		return err
	}
	if test.AdminID != adminID {
		return ErrNotTestOwner
	}

	if err := s.testRepo.SetActive(ctx, testID, false); err != nil {
		return err
	}
	s.rdb.Del(ctx, config.CacheKey.TestPayloadKey(testID.String()))

	s.log.Info().Str("test_id", testID.String()).Msg("Test deactivated")
	return nil
}

// Delete hard-deletes a test. Questions cascade away; results that reference
// the test keep a dangling (nulled) reference and stay viewable.
func (s *TestService) Delete(ctx context.Context, testID, adminID uuid.UUID) error {
	test, err := s.GetByID(ctx, testID)
	if err != nil {
		return err
	}
	if test.AdminID != adminID {
		return ErrNotTestOwner
	}

	if err := s.testRepo.Delete(ctx, testID); err != nil {
		return err
	}
	s.rdb.Del(ctx, config.CacheKey.TestPayloadKey(testID.String()))

	s.log.Info().Str("test_id", testID.String()).Msg("Test deleted")
	return nil
}

// WarmTestCache loads a test's questions from PostgreSQL and caches the
// student-facing payload (correctness withheld) in Redis.
func (s *TestService) WarmTestCache(ctx context.Context, test *model.Test) error {
	questions, err := s.questionRepo.ListByTest(ctx, test.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		studentQuestions[i] = model.QuestionForStudent{
			ID:       q.ID,
			Text:     q.Text,
			Options:  q.OptionTexts(),
			OrderNum: q.OrderNum,
		}
	}

	payload := model.TestPayload{
		TestID:          test.ID,
		Title:           test.Title,
		DurationMinutes: test.DurationMinutes,
		TotalMarks:      test.TotalMarks,
		PassingMarks:    test.PassingMarks,
		Questions:       studentQuestions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	key := config.CacheKey.TestPayloadKey(test.ID.String())
	if err := s.rdb.Set(ctx, key, payloadJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("test_id", test.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all active tests into Redis on application startup,
// avoiding lazy-load races under a thundering herd.
func (s *TestService) PrewarmAllCaches(ctx context.Context) error {
	tests, err := s.testRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active tests: %w", err)
	}
	if len(tests) == 0 {
		s.log.Info().Msg("No active tests to prewarm")
		return nil
	}

	warmed := 0
	for i := range tests {
		if err := s.WarmTestCache(ctx, &tests[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("test_id", tests[i].ID.String()).
				Msg("Failed to warm test, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(tests)).
		Msg("Prewarming complete")
	return nil
}

// GetTestPayload retrieves the cached student payload, falling back to a
// direct warm for active tests on a cache miss.
func (s *TestService) GetTestPayload(ctx context.Context, testID uuid.UUID) (*model.TestPayload, error) {
	key := config.CacheKey.TestPayloadKey(testID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Self-heal: warm the cache from PostgreSQL.
		test, terr := s.GetByID(ctx, testID)
		if terr != nil {
			return nil, terr
		}
		if !test.IsActive {
			return nil, ErrTestNotActive
		}
		if werr := s.WarmTestCache(ctx, test); werr != nil {
			return nil, werr
		}
		data, err = s.rdb.Get(ctx, key).Bytes()
	}
	if err != nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.TestPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}
