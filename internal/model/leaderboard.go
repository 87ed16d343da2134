package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardJob is the queue payload produced on submission and consumed by
// the leaderboard worker.
type LeaderboardJob struct {
	StudentID uuid.UUID `json:"student_id"`
	TestID    uuid.UUID `json:"test_id"`
	Score     int       `json:"score"`
}

// LeaderboardEntry tracks a student's best score on one test.
type LeaderboardEntry struct {
	TestID      uuid.UUID `json:"test_id"`
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	BestScore   int       `json:"best_score"`
	Attempts    int       `json:"attempts"`
	UpdatedAt   time.Time `json:"updated_at"`
}
