package repository

import (
	"context"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository handles notification data access.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create inserts a new notification for a student.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO notifications (student_id, title, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		n.StudentID, n.Title, n.Body,
	).Scan(&n.ID, &n.CreatedAt)
}

// ListByStudent retrieves a student's notifications, newest first.
func (r *NotificationRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, title, body, read, created_at
		 FROM notifications WHERE student_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.StudentID, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread returns the number of unread notifications for a student.
func (r *NotificationRepository) CountUnread(ctx context.Context, studentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE student_id = $1 AND NOT read`,
		studentID).Scan(&count)
	return count, err
}

// MarkRead marks a single notification as read, scoped to its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, studentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND student_id = $2`,
		id, studentID)
	return err
}
