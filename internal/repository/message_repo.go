package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/pkg/utils"
)

// MessageRepository message repository interface
type MessageRepository interface {
	// Get message by ID with attachments and embedded requests
	GetByID(ctx context.Context, id uint64) (*model.Message, error)

	// List a group's messages, newest first
	ListForGroup(ctx context.Context, groupID uint64, opts pagination.Options) (*pagination.Page[model.Message], error)
}

// messageRepository message repository implementation
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// GetByID gets a message by ID
func (r *messageRepository) GetByID(ctx context.Context, id uint64) (*model.Message, error) {
	var message model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Files").
		Preload("OrderRequest").
		Preload("CompleteOrderRequest").
		Where("id = ?", id).
		First(&message).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewError(utils.CodeNotFound, "message not found")
		}
		return nil, err
	}
	return &message, nil
}

// ListForGroup lists a group's messages keyset-paginated, newest first
func (r *messageRepository) ListForGroup(ctx context.Context, groupID uint64, opts pagination.Options) (*pagination.Page[model.Message], error) {
	q := r.db.
		Model(&model.Message{}).
		Preload("Sender").
		Preload("Files").
		Preload("OrderRequest.Package").
		Preload("CompleteOrderRequest.Order").
		Where("group_id = ?", groupID)

	opts.Descending = true
	return pagination.Paginate[model.Message](ctx, q, opts)
}
