package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/pkg/utils"
)

// NotificationRepository notification repository interface
type NotificationRepository interface {
	// Get notification by ID
	GetByID(ctx context.Context, id uint64) (*model.Notification, error)

	// List a user's notifications, newest first
	ListForUser(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.Notification], error)

	// Mark one of the user's notifications read, adjusting the aggregate
	MarkRead(ctx context.Context, userID, notificationID uint64) error

	// Mark all of the user's notifications read, zeroing the aggregate
	MarkAllRead(ctx context.Context, userID uint64) error
}

// notificationRepository notification repository implementation
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// GetByID gets a notification by ID
func (r *notificationRepository) GetByID(ctx context.Context, id uint64) (*model.Notification, error) {
	var notification model.Notification
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&notification).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

// ListForUser lists a user's notifications keyset-paginated, newest first
func (r *notificationRepository) ListForUser(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.Notification], error) {
	q := r.db.
		Model(&model.Notification{}).
		Where("user_id = ?", userID)

	opts.Descending = true
	return pagination.Paginate[model.Notification](ctx, q, opts)
}

// MarkRead flips one notification to read. Marking an already-read
// notification again does not touch the aggregate counter.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&model.Notification{}).
			Where("id = ? AND user_id = ? AND unread = ?", notificationID, userID, true).
			Update("unread", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// either missing, someone else's, or already read
			var count int64
			if err := tx.Model(&model.Notification{}).
				Where("id = ? AND user_id = ?", notificationID, userID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return utils.ErrNotificationNotFound
			}
			return nil
		}

		return tx.
			Model(&model.User{}).
			Where("id = ? AND unread_notifications > 0", userID).
			Update("unread_notifications", gorm.Expr("unread_notifications - 1")).Error
	})
}

// MarkAllRead flips all of the user's notifications to read
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&model.Notification{}).
			Where("user_id = ? AND unread = ?", userID, true).
			Update("unread", false).Error; err != nil {
			return err
		}

		return tx.
			Model(&model.User{}).
			Where("id = ?", userID).
			Update("unread_notifications", 0).Error
	})
}
