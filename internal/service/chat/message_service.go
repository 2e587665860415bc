package chat

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"gigmarket/internal/config"
	"gigmarket/internal/model"
	"gigmarket/internal/monitor"
	"gigmarket/internal/pagination"
	"gigmarket/internal/presence"
	"gigmarket/internal/repository"
	"gigmarket/internal/service/notify"
	"gigmarket/internal/service/unread"
	"gigmarket/pkg/utils"
)

// FileInput one attachment of an outgoing message
type FileInput struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
	Size int64  `json:"size"`
}

// MessageResult a stored message, the member sockets to push it to and any
// mention notifications raised by it
type MessageResult struct {
	Message            *model.Message
	RecipientSocketIDs []string
	MentionDeliveries  []*notify.Delivery
}

// MessageService chat message service interface
type MessageService interface {
	// Send a message into a group
	SendMessage(ctx context.Context, senderID, groupID uint64, body string, attachments []FileInput) (*MessageResult, error)

	// List a group's messages; fetching the first page marks the group read
	ListMessages(ctx context.Context, userID, groupID uint64, opts pagination.Options) (*pagination.Page[model.Message], error)
}

// messageService chat message service implementation
type messageService struct {
	db          *gorm.DB
	groupRepo   repository.GroupRepository
	messageRepo repository.MessageRepository
	dispatcher  *notify.Dispatcher
	presence    *presence.Tracker
	market      *config.MarketConfig
}

// NewMessageService creates a chat message service
func NewMessageService(
	db *gorm.DB,
	groupRepo repository.GroupRepository,
	messageRepo repository.MessageRepository,
	dispatcher *notify.Dispatcher,
	tracker *presence.Tracker,
	market *config.MarketConfig,
) MessageService {
	return &messageService{
		db:          db,
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		dispatcher:  dispatcher,
		presence:    tracker,
		market:      market,
	}
}

// SendMessage stores a message, bumps every member's unread counters and
// raises mention notifications, all in one transaction
func (s *messageService) SendMessage(ctx context.Context, senderID, groupID uint64, body string, attachments []FileInput) (*MessageResult, error) {
	body = strings.TrimSpace(body)
	if body == "" && len(attachments) == 0 {
		return nil, utils.NewError(utils.CodeBadRequest, "message cannot be empty")
	}
	if len(attachments) > s.market.MaxMessageFiles {
		return nil, utils.NewError(utils.CodeBadRequest,
			fmt.Sprintf("a message can carry at most %d files", s.market.MaxMessageFiles))
	}
	maxSize := int64(s.market.MaxFileSizeMB) << 20
	for _, f := range attachments {
		if f.Size > maxSize {
			return nil, utils.NewError(utils.CodeBadRequest,
				fmt.Sprintf("file %q exceeds the %dMB limit", f.Name, s.market.MaxFileSizeMB))
		}
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	sender := group.Member(senderID)
	if sender == nil {
		return nil, utils.ErrNotMember
	}

	message := &model.Message{
		GroupID:  groupID,
		SenderID: senderID,
		Body:     body,
	}

	var deliveries []*notify.Delivery

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		if len(attachments) > 0 {
			rows := make([]model.MessageFile, len(attachments))
			for i, f := range attachments {
				rows[i] = model.MessageFile{
					MessageID: message.ID,
					Name:      f.Name,
					URL:       f.URL,
					Size:      f.Size,
				}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
			message.Files = rows
		}

		if err := unread.BumpGroup(tx, groupID); err != nil {
			return err
		}

		senderName := senderUsername(group, senderID)
		for _, mentioned := range ParseMentions(body, senderID, group.Members) {
			if !mentioned.AllowsNotification(model.SettingMentionsAndReplies) {
				continue
			}
			navigateTo := fmt.Sprintf("/groups/%d", groupID)
			delivery, err := s.dispatcher.Dispatch(ctx, tx, mentioned.ID,
				"You were mentioned",
				fmt.Sprintf("%s mentioned you in %s", senderName, group.Name),
				&navigateTo)
			if err != nil {
				return err
			}
			deliveries = append(deliveries, delivery)
			monitor.MentionsDispatched.Inc()
		}

		return nil
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	monitor.MessagesSent.Inc()

	recipients := make([]uint64, 0, len(group.Members))
	for _, m := range group.Members {
		if m.UserID != senderID {
			recipients = append(recipients, m.UserID)
		}
	}
	sockets, err := s.presence.SocketIDs(ctx, recipients)
	if err != nil {
		sockets = nil
	}

	full, err := s.messageRepo.GetByID(ctx, message.ID)
	if err == nil {
		message = full
	}

	return &MessageResult{
		Message:            message,
		RecipientSocketIDs: sockets,
		MentionDeliveries:  deliveries,
	}, nil
}

// ListMessages pages through a group's history, newest first. Opening the
// history counts as reading it, so the first page clears the caller's unread
// counter for the group.
func (s *messageService) ListMessages(ctx context.Context, userID, groupID uint64, opts pagination.Options) (*pagination.Page[model.Message], error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if group.Member(userID) == nil {
		return nil, utils.ErrNotMember
	}

	page, err := s.messageRepo.ListForGroup(ctx, groupID, opts)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	if !pagination.HasCursor(opts.Cursor) {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := unread.ClearGroupForUser(tx, groupID, userID)
			return err
		})
		if err != nil {
			return nil, utils.MapInternal(err)
		}
	}

	return page, nil
}

func senderUsername(group *model.MessageGroup, senderID uint64) string {
	if m := group.Member(senderID); m != nil && m.User != nil {
		return m.User.Username
	}
	return "someone"
}
