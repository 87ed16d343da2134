package repository

import (
	"context"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardRepository reads the durable leaderboard table. Writes go
// through the leaderboard worker's batch upsert.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

// TopByTest retrieves the best scorers for a test, with student names joined.
func (r *LeaderboardRepository) TopByTest(ctx context.Context, testID uuid.UUID, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.test_id, l.student_id, s.name, l.best_score, l.attempts, l.updated_at
		 FROM leaderboard_entries l
		 JOIN students s ON l.student_id = s.id
		 WHERE l.test_id = $1
		 ORDER BY l.best_score DESC, l.updated_at ASC
		 LIMIT $2`, testID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.TestID, &e.StudentID, &e.StudentName, &e.BestScore, &e.Attempts, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
