package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/pkg/utils"
)

// GroupRepository message group repository interface
type GroupRepository interface {
	// Get group by ID with members and their users
	GetByID(ctx context.Context, id uint64) (*model.MessageGroup, error)

	// Get the group a user created for a post, nil when none exists
	GetByPostAndCreator(ctx context.Context, postID, creatorID uint64) (*model.MessageGroup, error)

	// List the groups a user belongs to, most recently updated first
	ListForUser(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.MessageGroup], error)

	// List message IDs of a group (for cleanup fan-out)
	ListMessageIDs(ctx context.Context, groupID uint64) ([]uint64, error)
}

// groupRepository message group repository implementation
type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a message group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// GetByID gets a group by ID
func (r *groupRepository) GetByID(ctx context.Context, id uint64) (*model.MessageGroup, error) {
	var group model.MessageGroup
	err := r.db.WithContext(ctx).
		Preload("Members.User").
		Preload("Post").
		Where("id = ?", id).
		First(&group).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GetByPostAndCreator gets the (post, creator) group if one exists
func (r *groupRepository) GetByPostAndCreator(ctx context.Context, postID, creatorID uint64) (*model.MessageGroup, error) {
	var group model.MessageGroup
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND creator_id = ?", postID, creatorID).
		First(&group).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// ListForUser lists the groups the user is a member of
func (r *groupRepository) ListForUser(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.MessageGroup], error) {
	q := r.db.
		Model(&model.MessageGroup{}).
		Preload("Members.User").
		Joins("JOIN group_members ON group_members.group_id = message_groups.id").
		Where("group_members.user_id = ?", userID)

	if opts.CursorField == "" {
		opts.CursorField = "message_groups.id"
	}
	opts.Descending = true
	return pagination.Paginate[model.MessageGroup](ctx, q, opts)
}

// ListMessageIDs lists all message IDs of a group
func (r *groupRepository) ListMessageIDs(ctx context.Context, groupID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("group_id = ?", groupID).
		Pluck("id", &ids).Error
	return ids, err
}
