package notification

import (
	"context"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/internal/repository"
	"gigmarket/pkg/utils"
)

// NotificationService notification inbox service interface
type NotificationService interface {
	// List the user's notifications
	List(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.Notification], error)

	// Mark one notification read
	MarkRead(ctx context.Context, userID, notificationID uint64) error

	// Mark every notification read
	MarkAllRead(ctx context.Context, userID uint64) error
}

// notificationService notification inbox service implementation
type notificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a notification inbox service
func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

// List lists the user's notifications, newest first
func (s *notificationService) List(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.Notification], error) {
	return s.notificationRepo.ListForUser(ctx, userID, opts)
}

// MarkRead marks one of the user's notifications read
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uint64) error {
	return utils.MapInternal(s.notificationRepo.MarkRead(ctx, userID, notificationID))
}

// MarkAllRead marks all of the user's notifications read
func (s *notificationService) MarkAllRead(ctx context.Context, userID uint64) error {
	return utils.MapInternal(s.notificationRepo.MarkAllRead(ctx, userID))
}
