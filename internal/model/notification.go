package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message surfaced to a student via polling.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
