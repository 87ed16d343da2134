package service

import (
	"context"

	"github.com/examlet/examlet-backend/internal/config"
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LeaderboardService serves per-test rankings. The hot path reads the Redis
// sorted set maintained by the leaderboard worker; PostgreSQL is the fallback
// when the set is missing (e.g. after a Redis restart).
type LeaderboardService struct {
	leaderboardRepo *repository.LeaderboardRepository
	studentRepo     *repository.StudentRepository
	rdb             *redis.Client
	log             zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	leaderboardRepo *repository.LeaderboardRepository,
	studentRepo *repository.StudentRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		studentRepo:     studentRepo,
		rdb:             rdb,
		log:             log.With().Str("component", "leaderboard_service").Logger(),
	}
}

// TopByTest returns the best scorers for a test, highest first.
func (s *LeaderboardService) TopByTest(ctx context.Context, testID uuid.UUID, limit int) ([]model.LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	entries, err := s.topFromRedis(ctx, testID, limit)
	if err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Redis leaderboard read failed, falling back to PostgreSQL")
	}
	if len(entries) > 0 {
		return entries, nil
	}

	entries, err = s.leaderboardRepo.TopByTest(ctx, testID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *LeaderboardService) topFromRedis(ctx context.Context, testID uuid.UUID, limit int) ([]model.LeaderboardEntry, error) {
	key := config.CacheKey.TestLeaderboardKey(testID.String())
	members, err := s.rdb.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil || len(members) == 0 {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		raw, ok := m.Member.(string)
		if !ok {
			continue
		}
		id, perr := uuid.Parse(raw)
		if perr != nil {
			continue
		}
		ids = append(ids, id)
	}

	names, err := s.studentRepo.GetNamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(ids))
	for _, m := range members {
		raw, ok := m.Member.(string)
		if !ok {
			continue
		}
		id, perr := uuid.Parse(raw)
		if perr != nil {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			TestID:      testID,
			StudentID:   id,
			StudentName: names[id],
			BestScore:   int(m.Score),
		})
	}
	return entries, nil
}
