package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/pkg/utils"
)

// PostRepository service post repository interface
type PostRepository interface {
	// Get service post by ID
	GetByID(ctx context.Context, id uint64) (*model.ServicePost, error)

	// Get one package of a post by its tier
	GetPackage(ctx context.Context, postID uint64, packageType string) (*model.Package, error)

	// Get package by ID
	GetPackageByID(ctx context.Context, id uint64) (*model.Package, error)
}

// postRepository service post repository implementation
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a service post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// GetByID gets a service post by ID
func (r *postRepository) GetByID(ctx context.Context, id uint64) (*model.ServicePost, error) {
	var post model.ServicePost
	err := r.db.WithContext(ctx).
		Preload("Seller.User").
		Preload("Packages").
		Where("id = ?", id).
		First(&post).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPackage gets one tier of a post
func (r *postRepository) GetPackage(ctx context.Context, postID uint64, packageType string) (*model.Package, error) {
	var pkg model.Package
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND type = ?", postID, packageType).
		First(&pkg).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

// GetPackageByID gets a package by ID
func (r *postRepository) GetPackageByID(ctx context.Context, id uint64) (*model.Package, error) {
	var pkg model.Package
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("id = ?", id).
		First(&pkg).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}
