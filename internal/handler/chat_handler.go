package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/middleware"
	"gigmarket/internal/pagination"
	"gigmarket/internal/realtime"
	"gigmarket/internal/service/chat"
	"gigmarket/internal/service/notify"
	"gigmarket/pkg/log"
	"gigmarket/pkg/utils"
)

// ChatHandler message group and message handler
type ChatHandler struct {
	groupService   chat.GroupService
	messageService chat.MessageService
	publisher      *realtime.Publisher
}

// NewChatHandler creates a chat handler
func NewChatHandler(
	groupService chat.GroupService,
	messageService chat.MessageService,
	publisher *realtime.Publisher,
) *ChatHandler {
	return &ChatHandler{
		groupService:   groupService,
		messageService: messageService,
		publisher:      publisher,
	}
}

// CreateGroup opens a conversation about a service post
func (h *ChatHandler) CreateGroup(c *gin.Context) {
	var req struct {
		PostID          uint64   `json:"post_id" binding:"required"`
		Name            string   `json:"name" binding:"max=200"`
		MemberUsernames []string `json:"member_usernames"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	result, err := h.groupService.CreateGroup(c.Request.Context(), middleware.UserID(c), req.PostID, req.Name, req.MemberUsernames)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.broadcast(c, realtime.EventGroupJoined, result.RecipientSocketIDs, result.Group)
	utils.SuccessResponse(c, result.Group)
}

// AddMembers enrolls users into a conversation by username
func (h *ChatHandler) AddMembers(c *gin.Context) {
	groupID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid group id")
		return
	}

	var req struct {
		Usernames []string `json:"usernames" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	result, err := h.groupService.AddMembers(c.Request.Context(), middleware.UserID(c), groupID, req.Usernames)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.broadcast(c, realtime.EventGroupJoined, result.NewMemberSocketIDs, result.Group)
	h.broadcast(c, realtime.EventGroupUpdated, existingSockets(result), result.Group)
	utils.SuccessResponse(c, result.Group)
}

// ListGroups lists the caller's conversations
func (h *ChatHandler) ListGroups(c *gin.Context) {
	page, err := h.groupService.ListGroups(c.Request.Context(), middleware.UserID(c), pageOptions(c))
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, page)
}

// UpdateGroup renames a conversation and/or adds members
func (h *ChatHandler) UpdateGroup(c *gin.Context) {
	groupID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid group id")
		return
	}

	var req struct {
		Name            string   `json:"name" binding:"max=200"`
		MemberUsernames []string `json:"member_usernames"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	result, err := h.groupService.UpdateGroup(c.Request.Context(), middleware.UserID(c), groupID, req.Name, req.MemberUsernames)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.broadcast(c, realtime.EventGroupJoined, result.NewMemberSocketIDs, result.Group)
	h.broadcast(c, realtime.EventGroupUpdated, existingSockets(result), result.Group)
	utils.SuccessResponse(c, result.Group)
}

// DeleteGroup deletes a conversation and everything in it
func (h *ChatHandler) DeleteGroup(c *gin.Context) {
	groupID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid group id")
		return
	}

	result, err := h.groupService.DeleteGroup(c.Request.Context(), middleware.UserID(c), groupID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.broadcast(c, realtime.EventGroupDeleted, result.RecipientSocketIDs, gin.H{"group_id": groupID})
	utils.SuccessResponse(c, nil)
}

// RemoveMember removes a member, or leaves when removing yourself
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	groupID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid group id")
		return
	}
	memberID, err := utils.ParseID(c.Param("userID"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid member id")
		return
	}

	result, err := h.groupService.RemoveMember(c.Request.Context(), middleware.UserID(c), groupID, memberID)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.broadcast(c, realtime.EventMemberRemoved, result.RecipientSocketIDs, gin.H{
		"group_id": groupID,
		"user_id":  memberID,
	})
	utils.SuccessResponse(c, nil)
}

// ReadGroup marks the conversation read for the caller
func (h *ChatHandler) ReadGroup(c *gin.Context) {
	groupID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid group id")
		return
	}

	if err := h.groupService.ReadGroup(c.Request.Context(), middleware.UserID(c), groupID); err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}

// SendMessage sends a message into a conversation
func (h *ChatHandler) SendMessage(c *gin.Context) {
	groupID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid group id")
		return
	}

	var req struct {
		Body  string           `json:"body"`
		Files []chat.FileInput `json:"files"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid parameters: "+err.Error())
		return
	}

	result, err := h.messageService.SendMessage(c.Request.Context(), middleware.UserID(c), groupID, req.Body, req.Files)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	h.broadcast(c, realtime.EventMessageReceived, result.RecipientSocketIDs, result.Message)
	h.pushDeliveries(c, result.MentionDeliveries)
	utils.SuccessResponse(c, result.Message)
}

// ListMessages pages through a conversation's history
func (h *ChatHandler) ListMessages(c *gin.Context) {
	groupID, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.CodeBadRequest, "invalid group id")
		return
	}

	page, err := h.messageService.ListMessages(c.Request.Context(), middleware.UserID(c), groupID, pageOptions(c))
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}
	utils.SuccessResponse(c, page)
}

// broadcast pushes an event to a set of sockets, logging rather than failing
// the request when the queue is unavailable
func (h *ChatHandler) broadcast(c *gin.Context, event string, socketIDs []string, payload interface{}) {
	if err := h.publisher.Broadcast(c.Request.Context(), event, socketIDs, payload); err != nil {
		log.WithError(err).Warn("Failed to enqueue live event")
	}
}

func (h *ChatHandler) pushDeliveries(c *gin.Context, deliveries []*notify.Delivery) {
	for _, d := range deliveries {
		if d == nil {
			continue
		}
		err := h.publisher.Push(c.Request.Context(), realtime.Event{
			SocketID: d.SocketID,
			Name:     realtime.EventNotificationReceived,
			Payload:  d.Notification,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to enqueue notification event")
		}
	}
}

// existingSockets strips freshly joined members out of the broadcast set so
// they only receive the join event
func existingSockets(result *chat.GroupResult) []string {
	if len(result.NewMemberSocketIDs) == 0 {
		return result.RecipientSocketIDs
	}

	fresh := make(map[string]bool, len(result.NewMemberSocketIDs))
	for _, id := range result.NewMemberSocketIDs {
		fresh[id] = true
	}

	out := make([]string, 0, len(result.RecipientSocketIDs))
	for _, id := range result.RecipientSocketIDs {
		if !fresh[id] {
			out = append(out, id)
		}
	}
	return out
}

// pageOptions reads the limit and cursor query parameters
func pageOptions(c *gin.Context) pagination.Options {
	opts := pagination.Options{Limit: c.Query("limit")}

	if raw := c.Query("cursor"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			opts.Cursor = id
		} else {
			opts.Cursor = raw
		}
	}
	return opts
}
