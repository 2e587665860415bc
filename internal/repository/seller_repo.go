package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/pkg/utils"
)

// SellerRepository seller repository interface
type SellerRepository interface {
	// Get seller profile by ID
	GetByID(ctx context.Context, id uint64) (*model.Seller, error)

	// Get seller profile by owning user ID
	GetByUserID(ctx context.Context, userID uint64) (*model.Seller, error)

	// Get seller level with its successor
	GetLevel(ctx context.Context, id uint64) (*model.SellerLevel, error)

	// Bookmark a seller for a user
	Save(ctx context.Context, userID, sellerID uint64) error

	// Remove a bookmark
	Unsave(ctx context.Context, userID, sellerID uint64) error

	// List a user's bookmarked sellers
	ListSaved(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.SavedSeller], error)
}

// sellerRepository seller repository implementation
type sellerRepository struct {
	db *gorm.DB
}

// NewSellerRepository creates a seller repository
func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &sellerRepository{db: db}
}

// GetByID gets a seller by ID
func (r *sellerRepository) GetByID(ctx context.Context, id uint64) (*model.Seller, error) {
	var seller model.Seller
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Level").
		Where("id = ?", id).
		First(&seller).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrSellerNotFound
		}
		return nil, err
	}
	return &seller, nil
}

// GetByUserID gets the seller profile owned by the given user
func (r *sellerRepository) GetByUserID(ctx context.Context, userID uint64) (*model.Seller, error) {
	var seller model.Seller
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Level").
		Where("user_id = ?", userID).
		First(&seller).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrSellerNotFound
		}
		return nil, err
	}
	return &seller, nil
}

// GetLevel gets a seller level and preloads the next rung
func (r *sellerRepository) GetLevel(ctx context.Context, id uint64) (*model.SellerLevel, error) {
	var level model.SellerLevel
	err := r.db.WithContext(ctx).
		Preload("NextLevel").
		Where("id = ?", id).
		First(&level).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewError(utils.CodeNotFound, "seller level not found")
		}
		return nil, err
	}
	return &level, nil
}

// Save bookmarks a seller. Saving twice is a no-op.
func (r *sellerRepository) Save(ctx context.Context, userID, sellerID uint64) error {
	saved := &model.SavedSeller{UserID: userID, SellerID: sellerID}
	err := r.db.WithContext(ctx).Create(saved).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// Unsave removes a bookmark
func (r *sellerRepository) Unsave(ctx context.Context, userID, sellerID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND seller_id = ?", userID, sellerID).
		Delete(&model.SavedSeller{}).Error
}

// ListSaved lists a user's bookmarks, newest first
func (r *sellerRepository) ListSaved(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.SavedSeller], error) {
	q := r.db.
		Model(&model.SavedSeller{}).
		Preload("Seller.User").
		Preload("Seller.Level").
		Where("user_id = ?", userID)

	opts.Descending = true
	return pagination.Paginate[model.SavedSeller](ctx, q, opts)
}
