package service

import (
	"context"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/repository"
	"github.com/google/uuid"
)

// NotificationService exposes the polled notification feed.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// ListByStudent returns the newest notifications plus the unread count.
func (s *NotificationService) ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]model.Notification, int, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	notifications, err := s.notificationRepo.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, 0, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	unread, err := s.notificationRepo.CountUnread(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkRead marks one notification read, scoped to its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, studentID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, studentID)
}
