package handler

import (
	"github.com/gin-gonic/gin"

	"gigmarket/internal/middleware"
	"gigmarket/internal/model"
	"gigmarket/internal/service/user"
	"gigmarket/pkg/utils"
)

// UserHandler account handler
type UserHandler struct {
	userService user.UserService
}

// NewUserHandler creates an account handler
func NewUserHandler(userService user.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the caller's profile
func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, profile)
}

// TopUp adds funds to the caller's balance
func (h *UserHandler) TopUp(c *gin.Context) {
	var req struct {
		Amount int64 `json:"amount" binding:"required,gt=0"` // pence
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	profile, err := h.userService.TopUp(c.Request.Context(), middleware.UserID(c), req.Amount)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, profile)
}

// UpdateSettings replaces the caller's notification settings
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	var settings model.JSONObject
	if err := c.ShouldBindJSON(&settings); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	if err := h.userService.UpdateSettings(c.Request.Context(), middleware.UserID(c), settings); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}

// SaveSeller bookmarks a seller
func (h *UserHandler) SaveSeller(c *gin.Context) {
	sellerID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid seller id")
		return
	}

	if err := h.userService.SaveSeller(c.Request.Context(), middleware.UserID(c), sellerID); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}

// UnsaveSeller removes a bookmark
func (h *UserHandler) UnsaveSeller(c *gin.Context) {
	sellerID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid seller id")
		return
	}

	if err := h.userService.UnsaveSeller(c.Request.Context(), middleware.UserID(c), sellerID); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}

// ListSavedSellers lists the caller's bookmarks
func (h *UserHandler) ListSavedSellers(c *gin.Context) {
	page, err := h.userService.ListSavedSellers(c.Request.Context(), middleware.UserID(c), pageOptions(c))
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, page)
}

// Connect registers the caller's live socket
func (h *UserHandler) Connect(c *gin.Context) {
	var req struct {
		SocketID string `json:"socket_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	if err := h.userService.Connect(c.Request.Context(), middleware.UserID(c), req.SocketID); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}

// Disconnect clears the caller's live socket
func (h *UserHandler) Disconnect(c *gin.Context) {
	if err := h.userService.Disconnect(c.Request.Context(), middleware.UserID(c)); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}
