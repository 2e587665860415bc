package user

import (
	"context"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/internal/presence"
	"gigmarket/internal/repository"
	"gigmarket/internal/service/ledger"
	"gigmarket/pkg/log"
	"gigmarket/pkg/utils"
)

// UserService account service interface
type UserService interface {
	// Get a user's profile with their seller side if any
	GetProfile(ctx context.Context, userID uint64) (*model.User, error)

	// Add funds to the user's balance
	TopUp(ctx context.Context, userID uint64, amount int64) (*model.User, error)

	// Replace the user's notification settings
	UpdateSettings(ctx context.Context, userID uint64, settings model.JSONObject) error

	// Bookmark a seller
	SaveSeller(ctx context.Context, userID, sellerID uint64) error

	// Remove a bookmark
	UnsaveSeller(ctx context.Context, userID, sellerID uint64) error

	// List bookmarked sellers
	ListSavedSellers(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.SavedSeller], error)

	// Record the user's live socket
	Connect(ctx context.Context, userID uint64, socketID string) error

	// Clear the user's live socket
	Disconnect(ctx context.Context, userID uint64) error
}

// userService account service implementation
type userService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	sellerRepo repository.SellerRepository
	presence   *presence.Tracker
}

// NewUserService creates an account service
func NewUserService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	sellerRepo repository.SellerRepository,
	tracker *presence.Tracker,
) UserService {
	return &userService{
		db:         db,
		userRepo:   userRepo,
		sellerRepo: sellerRepo,
		presence:   tracker,
	}
}

// GetProfile gets a user's profile
func (s *userService) GetProfile(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	return user, nil
}

// TopUp credits the user's balance and returns the updated profile
func (s *userService) TopUp(ctx context.Context, userID uint64, amount int64) (*model.User, error) {
	if amount <= 0 {
		return nil, utils.NewError(utils.CodeBadRequest, "top-up amount must be positive")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ledger.Credit(tx, userID, amount)
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	log.WithFields(map[string]interface{}{
		"user_id": userID,
		"amount":  utils.FormatGBP(amount),
	}).Info("Balance topped up")

	return s.GetProfile(ctx, userID)
}

// UpdateSettings replaces the user's notification settings
func (s *userService) UpdateSettings(ctx context.Context, userID uint64, settings model.JSONObject) error {
	return utils.MapInternal(s.userRepo.UpdateSettings(ctx, userID, settings))
}

// SaveSeller bookmarks a seller
func (s *userService) SaveSeller(ctx context.Context, userID, sellerID uint64) error {
	seller, err := s.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		return utils.MapInternal(err)
	}
	if seller.UserID == userID {
		return utils.NewError(utils.CodeBadRequest, "you cannot save yourself")
	}
	return utils.MapInternal(s.sellerRepo.Save(ctx, userID, sellerID))
}

// UnsaveSeller removes a bookmark
func (s *userService) UnsaveSeller(ctx context.Context, userID, sellerID uint64) error {
	return utils.MapInternal(s.sellerRepo.Unsave(ctx, userID, sellerID))
}

// ListSavedSellers lists the user's bookmarks
func (s *userService) ListSavedSellers(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.SavedSeller], error) {
	return s.sellerRepo.ListSaved(ctx, userID, opts)
}

// Connect records the user's live socket
func (s *userService) Connect(ctx context.Context, userID uint64, socketID string) error {
	if socketID == "" {
		return utils.NewError(utils.CodeBadRequest, "socket id is required")
	}
	return utils.MapInternal(s.presence.Connect(ctx, userID, socketID))
}

// Disconnect clears the user's live socket
func (s *userService) Disconnect(ctx context.Context, userID uint64) error {
	return utils.MapInternal(s.presence.Disconnect(ctx, userID))
}
