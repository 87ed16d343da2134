package model

import (
	"time"

	"github.com/google/uuid"
)

// Test represents an exam definition owning a set of questions.
type Test struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      int       `json:"total_marks"`
	PassingMarks    int       `json:"passing_marks"`
	IsActive        bool      `json:"is_active"`
	AdminID         uuid.UUID `json:"admin_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateTestRequest is the payload for creating a new test.
type CreateTestRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	TotalMarks      int    `json:"total_marks" binding:"required,min=1"`
	PassingMarks    int    `json:"passing_marks" binding:"min=0,ltefield=TotalMarks"`
}

// UpdateTestRequest is the payload for updating an existing test.
type UpdateTestRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	TotalMarks      *int   `json:"total_marks" binding:"omitempty,min=1"`
	PassingMarks    *int   `json:"passing_marks" binding:"omitempty,min=0"`
	IsActive        *bool  `json:"is_active" binding:"omitempty"`
}

// TestPayload is the Redis-cached payload sent to students. Option correctness
// flags are stripped before caching and never reach the exam-taking client.
type TestPayload struct {
	TestID          uuid.UUID            `json:"test_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	TotalMarks      int                  `json:"total_marks"`
	PassingMarks    int                  `json:"passing_marks"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question with correctness withheld.
type QuestionForStudent struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"question"`
	Options  []string  `json:"options"`
	OrderNum int       `json:"order_num"`
}
