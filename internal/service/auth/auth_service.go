package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gigmarket/internal/model"
	"gigmarket/internal/repository"
	iutils "gigmarket/internal/utils"
	"gigmarket/pkg/log"
	"gigmarket/pkg/utils"
)

const (
	maxLoginFailures  = 5
	loginLockDuration = 15 * time.Minute
)

// RegisterRequest register request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse token response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// AuthService authentication service interface
type AuthService interface {
	// Register user
	Register(ctx context.Context, req *RegisterRequest) (*model.User, error)

	// Login user
	Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error)

	// Logout user
	Logout(ctx context.Context, userID uint64) error

	// Validate token
	ValidateToken(ctx context.Context, token string) (*iutils.JWTClaims, error)

	// Refresh token
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// authService authentication service implementation
type authService struct {
	userRepo     repository.UserRepository
	jwtManager   *iutils.JWTManager
	redis        *redis.Client
	accessExpire time.Duration
}

// NewAuthService creates an authentication service
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *iutils.JWTManager,
	redisClient *redis.Client,
	accessExpire time.Duration,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		jwtManager:   jwtManager,
		redis:        redisClient,
		accessExpire: accessExpire,
	}
}

// Register registers a user
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, utils.NewError(utils.CodeConflict, "username already taken")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		return nil, utils.ErrInternalError
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}
	user := &model.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       model.UserStatusNormal,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		log.WithError(err).Error("Failed to create user")
		return nil, utils.ErrDatabaseError
	}

	log.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")
	return user, nil
}

// Login logs in a user
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, utils.NewError(utils.CodeUnauthorized, "username or password incorrect")
	}

	if !user.IsActive() {
		return nil, utils.NewError(utils.CodeForbidden, "account disabled")
	}

	if err := s.checkLoginAttempts(ctx, user.ID); err != nil {
		return nil, err
	}

	if !utils.VerifyPassword(req.Password, user.PasswordHash) {
		s.recordLoginFailure(ctx, user.ID)
		return nil, utils.NewError(utils.CodeUnauthorized, "username or password incorrect")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.WithError(err).Warn("Failed to record login time")
	}
	s.redis.Del(ctx, failureKey(user.ID))

	log.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User logged in")
	return tokens, nil
}

// Logout invalidates the user's stored token
func (s *authService) Logout(ctx context.Context, userID uint64) error {
	return s.redis.Del(ctx, tokenKey(userID)).Err()
}

// ValidateToken validates a token and checks it is still the live one
func (s *authService) ValidateToken(ctx context.Context, token string) (*iutils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, utils.NewError(utils.CodeUnauthorized, "invalid token")
	}

	stored, err := s.redis.Get(ctx, tokenKey(claims.UserID)).Result()
	if err == redis.Nil || stored != token {
		return nil, utils.NewError(utils.CodeUnauthorized, "token revoked")
	}
	if err != nil {
		log.WithError(err).Error("Failed to check token store")
		return nil, utils.ErrInternalError
	}

	return claims, nil
}

// RefreshToken exchanges a refresh token for new tokens
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, utils.NewError(utils.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, utils.NewError(utils.CodeUnauthorized, "invalid refresh token")
	}
	if !user.IsActive() {
		return nil, utils.NewError(utils.CodeForbidden, "account disabled")
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		log.WithError(err).Error("Failed to generate access token")
		return nil, utils.ErrInternalError
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		log.WithError(err).Error("Failed to generate refresh token")
		return nil, utils.ErrInternalError
	}

	if err := s.redis.Set(ctx, tokenKey(user.ID), accessToken, s.accessExpire).Err(); err != nil {
		log.WithError(err).Error("Failed to store token")
		return nil, utils.ErrInternalError
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpire.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func (s *authService) checkLoginAttempts(ctx context.Context, userID uint64) error {
	count, err := s.redis.Get(ctx, failureKey(userID)).Int()
	if err != nil && err != redis.Nil {
		log.WithError(err).Warn("Failed to read login failures")
		return nil
	}
	if count >= maxLoginFailures {
		return utils.NewError(utils.CodeForbidden, "too many failed attempts, try again later")
	}
	return nil
}

func (s *authService) recordLoginFailure(ctx context.Context, userID uint64) {
	key := failureKey(userID)
	if err := s.redis.Incr(ctx, key).Err(); err != nil {
		log.WithError(err).Warn("Failed to record login failure")
		return
	}
	s.redis.Expire(ctx, key, loginLockDuration)
}

func tokenKey(userID uint64) string {
	return fmt.Sprintf("auth:token:%d", userID)
}

func failureKey(userID uint64) string {
	return fmt.Sprintf("auth:failures:%d", userID)
}
