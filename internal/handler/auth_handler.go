package handler

import (
	"github.com/gin-gonic/gin"

	"gigmarket/internal/middleware"
	"gigmarket/internal/service/auth"
	"gigmarket/pkg/utils"
)

// AuthHandler authentication handler
type AuthHandler struct {
	authService auth.AuthService
}

// NewAuthHandler creates an authentication handler
func NewAuthHandler(authService auth.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// Login user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	tokenResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, tokenResp)
}

// Logout user logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.UserID(c)

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		utils.Error(c, utils.CodeInternal, "logout failed")
		return
	}

	utils.SuccessResponse(c, nil)
}

// RefreshToken refreshes the access token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters")
		return
	}

	tokenResp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, tokenResp)
}
