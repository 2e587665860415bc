package handler

import (
	"github.com/gin-gonic/gin"

	"gigmarket/internal/middleware"
	"gigmarket/internal/service/notification"
	"gigmarket/pkg/utils"
)

// NotificationHandler notification inbox handler
type NotificationHandler struct {
	notificationService notification.NotificationService
}

// NewNotificationHandler creates a notification handler
func NewNotificationHandler(notificationService notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List lists the caller's notifications
func (h *NotificationHandler) List(c *gin.Context) {
	page, err := h.notificationService.List(c.Request.Context(), middleware.UserID(c), pageOptions(c))
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, page)
}

// MarkRead marks one notification read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid notification id")
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), middleware.UserID(c), notificationID); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}

// MarkAllRead marks every notification read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.UserID(c)); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}
