package handler

import (
	"github.com/gin-gonic/gin"

	"gigmarket/internal/middleware"
	"gigmarket/internal/model"
	"gigmarket/internal/realtime"
	"gigmarket/internal/service/notify"
	"gigmarket/internal/service/order"
	"gigmarket/pkg/log"
	"gigmarket/pkg/utils"
)

// OrderHandler order request and completion handler
type OrderHandler struct {
	requestService  order.RequestService
	completeService order.CompleteService
	publisher       *realtime.Publisher
}

// NewOrderHandler creates an order handler
func NewOrderHandler(
	requestService order.RequestService,
	completeService order.CompleteService,
	publisher *realtime.Publisher,
) *OrderHandler {
	return &OrderHandler{
		requestService:  requestService,
		completeService: completeService,
		publisher:       publisher,
	}
}

// CreateRequest places an order request for a package
func (h *OrderHandler) CreateRequest(c *gin.Context) {
	var req struct {
		PostID      uint64 `json:"post_id" binding:"required"`
		PackageType string `json:"package_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	result, err := h.requestService.CreateRequest(c.Request.Context(), middleware.UserID(c), req.PostID, req.PackageType)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.fanOut(c, result.RecipientSocketIDs, result.Message, result.Delivery)
	utils.SuccessResponse(c, result.Message)
}

// ResolveRequest accepts, declines or cancels a pending order request
func (h *OrderHandler) ResolveRequest(c *gin.Context) {
	requestID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid request id")
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	status, ok := requestAction(req.Action)
	if !ok {
		utils.Error(c, utils.CodeBadRequest, "unknown action")
		return
	}

	result, err := h.requestService.ResolveRequest(c.Request.Context(), requestID, middleware.UserID(c), status)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.fanOut(c, result.RecipientSocketIDs, result.Request, result.Delivery)
	utils.SuccessResponse(c, gin.H{
		"request": result.Request,
		"order":   result.Order,
	})
}

// CreateCompleteRequest asks the buyer to confirm an order is fulfilled
func (h *OrderHandler) CreateCompleteRequest(c *gin.Context) {
	orderID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid order id")
		return
	}

	result, err := h.completeService.CreateRequest(c.Request.Context(), middleware.UserID(c), orderID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.fanOut(c, result.RecipientSocketIDs, result.Message, nil)
	utils.SuccessResponse(c, result.Message)
}

// ResolveCompleteRequest accepts or cancels a pending completion request
func (h *OrderHandler) ResolveCompleteRequest(c *gin.Context) {
	requestID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid request id")
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	status, ok := completeAction(req.Action)
	if !ok {
		utils.Error(c, utils.CodeBadRequest, "unknown action")
		return
	}

	result, err := h.completeService.ResolveRequest(c.Request.Context(), requestID, middleware.UserID(c), status)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.fanOut(c, result.RecipientSocketIDs, result.Request, result.Delivery)
	utils.SuccessResponse(c, gin.H{
		"request": result.Request,
		"order":   result.Order,
	})
}

// fanOut refreshes the chat for everyone else and pushes the counterpart's
// notification when one was raised
func (h *OrderHandler) fanOut(c *gin.Context, socketIDs []string, payload interface{}, delivery *notify.Delivery) {
	ctx := c.Request.Context()

	if err := h.publisher.Broadcast(ctx, realtime.EventMessageReceived, socketIDs, payload); err != nil {
		log.WithError(err).Warn("Failed to enqueue live event")
	}

	if delivery != nil {
		err := h.publisher.Push(ctx, realtime.Event{
			SocketID: delivery.SocketID,
			Name:     realtime.EventNotificationReceived,
			Payload:  delivery.Notification,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to enqueue notification event")
		}
	}
}

func requestAction(action string) (int8, bool) {
	switch action {
	case "accept":
		return model.RequestStatusAccepted, true
	case "decline":
		return model.RequestStatusDeclined, true
	case "cancel":
		return model.RequestStatusCancelled, true
	}
	return 0, false
}

func completeAction(action string) (int8, bool) {
	switch action {
	case "accept":
		return model.CompleteRequestStatusAccepted, true
	case "cancel":
		return model.CompleteRequestStatusCancelled, true
	}
	return 0, false
}
