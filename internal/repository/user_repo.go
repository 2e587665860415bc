package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/pkg/utils"
)

// UserRepository user repository interface
type UserRepository interface {
	// Create user
	Create(ctx context.Context, user *model.User) error

	// Get user by ID
	GetByID(ctx context.Context, id uint64) (*model.User, error)

	// Get user by username
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// Get users by username, missing names simply absent from the result
	ListByUsernames(ctx context.Context, usernames []string) ([]model.User, error)

	// Update user
	Update(ctx context.Context, user *model.User) error

	// Update last login time
	UpdateLastLogin(ctx context.Context, id uint64) error

	// Update notification settings
	UpdateSettings(ctx context.Context, id uint64, settings model.JSONObject) error
}

// userRepository user repository implementation
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a user
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("id = ?", id).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername gets a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListByUsernames gets users by username
func (r *userRepository) ListByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	var users []model.User
	err := r.db.WithContext(ctx).
		Where("username IN ?", usernames).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update updates a user
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateLastLogin records the login time
func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// UpdateSettings replaces the user's notification settings
func (r *userRepository) UpdateSettings(ctx context.Context, id uint64, settings model.JSONObject) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("settings", settings)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrUserNotFound
	}
	return nil
}
