package chat

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/internal/presence"
	"gigmarket/internal/repository"
	"gigmarket/internal/service/ledger"
	"gigmarket/internal/service/unread"
	"gigmarket/pkg/files"
	"gigmarket/pkg/log"
	"gigmarket/pkg/utils"
)

// GroupResult a group change plus the sockets that should hear about it.
// The recipients never include the acting user; their own client already
// knows. NewMemberSocketIDs carries the freshly added members separately so
// they can be greeted with a join event instead of an update.
type GroupResult struct {
	Group              *model.MessageGroup
	RecipientSocketIDs []string
	NewMemberSocketIDs []string
}

// GroupService message group service interface
type GroupService interface {
	// Create a conversation about a service post, enrolling the creator,
	// the post's seller and any extra usernames
	CreateGroup(ctx context.Context, creatorID, postID uint64, name string, memberUsernames []string) (*GroupResult, error)

	// Add members by username (creator only)
	AddMembers(ctx context.Context, actorID, groupID uint64, usernames []string) (*GroupResult, error)

	// Rename a group and/or add members (creator only)
	UpdateGroup(ctx context.Context, actorID, groupID uint64, name string, addUsernames []string) (*GroupResult, error)

	// Remove a member, or leave when removing yourself
	RemoveMember(ctx context.Context, actorID, groupID, memberUserID uint64) (*GroupResult, error)

	// Delete a group and everything in it (creator only)
	DeleteGroup(ctx context.Context, actorID, groupID uint64) (*GroupResult, error)

	// Mark every message in the group read for the user
	ReadGroup(ctx context.Context, userID, groupID uint64) error

	// List the user's groups
	ListGroups(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.MessageGroup], error)
}

// groupService message group service implementation
type groupService struct {
	db        *gorm.DB
	groupRepo repository.GroupRepository
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	presence  *presence.Tracker
	cleaner   files.Cleaner
}

// NewGroupService creates a message group service
func NewGroupService(
	db *gorm.DB,
	groupRepo repository.GroupRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	tracker *presence.Tracker,
	cleaner files.Cleaner,
) GroupService {
	return &groupService{
		db:        db,
		groupRepo: groupRepo,
		postRepo:  postRepo,
		userRepo:  userRepo,
		presence:  tracker,
		cleaner:   cleaner,
	}
}

// CreateGroup opens the buyer's conversation about a post. One conversation
// per (post, buyer); the seller is enrolled automatically alongside any
// extra usernames.
func (s *groupService) CreateGroup(ctx context.Context, creatorID, postID uint64, name string, memberUsernames []string) (*GroupResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if post.Seller == nil {
		return nil, utils.ErrSellerNotFound
	}
	if post.Seller.UserID == creatorID {
		return nil, utils.ErrOwnService
	}

	existing, err := s.groupRepo.GetByPostAndCreator(ctx, postID, creatorID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if existing != nil {
		return nil, utils.ErrGroupExists
	}

	extra, err := s.resolveUsers(ctx, memberUsernames)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = post.Title
	}
	group := &model.MessageGroup{
		PostID:    postID,
		CreatorID: creatorID,
		Name:      name,
	}

	memberIDs := []uint64{creatorID, post.Seller.UserID}
	for _, u := range extra {
		if u.ID != creatorID && u.ID != post.Seller.UserID {
			memberIDs = append(memberIDs, u.ID)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		members := make([]model.GroupMember, 0, len(memberIDs))
		for _, id := range memberIDs {
			members = append(members, model.GroupMember{GroupID: group.ID, UserID: id})
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	full, err := s.groupRepo.GetByID(ctx, group.ID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	return &GroupResult{
		Group:              full,
		RecipientSocketIDs: s.socketsExcept(ctx, full, creatorID),
	}, nil
}

// AddMembers enrolls users by username. Names already in the group are
// skipped rather than rejected.
func (s *groupService) AddMembers(ctx context.Context, actorID, groupID uint64, usernames []string) (*GroupResult, error) {
	if len(usernames) == 0 {
		return nil, utils.NewError(utils.CodeBadRequest, "no usernames given")
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if !group.IsOwnedBy(actorID) {
		return nil, utils.ErrNotGroupOwner
	}

	newIDs, err := s.enrollMembers(ctx, group, usernames)
	if err != nil {
		return nil, err
	}

	full, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	return &GroupResult{
		Group:              full,
		RecipientSocketIDs: s.socketsExcept(ctx, full, actorID),
		NewMemberSocketIDs: s.sockets(ctx, newIDs),
	}, nil
}

// UpdateGroup renames a group and/or adds members
func (s *groupService) UpdateGroup(ctx context.Context, actorID, groupID uint64, name string, addUsernames []string) (*GroupResult, error) {
	if name == "" && len(addUsernames) == 0 {
		return nil, utils.NewError(utils.CodeBadRequest, "nothing to update")
	}

	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if !group.IsOwnedBy(actorID) {
		return nil, utils.ErrNotGroupOwner
	}

	if name != "" {
		err = s.db.WithContext(ctx).
			Model(&model.MessageGroup{}).
			Where("id = ?", groupID).
			Update("name", name).Error
		if err != nil {
			return nil, utils.MapInternal(err)
		}
		group.Name = name
	}

	var newIDs []uint64
	if len(addUsernames) > 0 {
		if newIDs, err = s.enrollMembers(ctx, group, addUsernames); err != nil {
			return nil, err
		}
		if group, err = s.groupRepo.GetByID(ctx, groupID); err != nil {
			return nil, utils.MapInternal(err)
		}
	}

	return &GroupResult{
		Group:              group,
		RecipientSocketIDs: s.socketsExcept(ctx, group, actorID),
		NewMemberSocketIDs: s.sockets(ctx, newIDs),
	}, nil
}

// RemoveMember removes a member from the group. Anyone may remove themselves;
// removing someone else takes the creator. The creator cannot leave their own
// group, they delete it instead.
func (s *groupService) RemoveMember(ctx context.Context, actorID, groupID, memberUserID uint64) (*GroupResult, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	if actorID != memberUserID && !group.IsOwnedBy(actorID) {
		return nil, utils.ErrNotGroupOwner
	}
	if memberUserID == group.CreatorID {
		return nil, utils.NewError(utils.CodeBadRequest, "the group owner cannot leave their own group")
	}

	member := group.Member(memberUserID)
	if member == nil {
		return nil, utils.ErrMemberNotFound
	}

	// capture recipients before the membership row disappears; the removed
	// member is told too
	recipients := s.socketsExcept(ctx, group, actorID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if member.UnreadMessages > 0 {
			if err := tx.
				Model(&model.User{}).
				Where("id = ?", memberUserID).
				Update("unread_messages", gorm.Expr("GREATEST(unread_messages - ?, 0)", member.UnreadMessages)).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", member.ID).Delete(&model.GroupMember{}).Error
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	return &GroupResult{Group: group, RecipientSocketIDs: recipients}, nil
}

// DeleteGroup removes a group, its messages, attachments and embedded
// requests. Pending order requests in the group are cancelled and refunded so
// no money is stranded.
func (s *groupService) DeleteGroup(ctx context.Context, actorID, groupID uint64) (*GroupResult, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if !group.IsOwnedBy(actorID) {
		return nil, utils.ErrNotGroupOwner
	}

	messageIDs, err := s.groupRepo.ListMessageIDs(ctx, groupID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	recipients := s.socketsExcept(ctx, group, actorID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// release funds held by live pending requests
		var pending []model.OrderRequest
		if len(messageIDs) > 0 {
			if err := tx.
				Where("message_id IN ? AND status = ?", messageIDs, model.RequestStatusPending).
				Find(&pending).Error; err != nil {
				return err
			}
		}
		now := time.Now()
		for i := range pending {
			if err := ledger.Credit(tx, pending[i].ClientID, pending[i].Total); err != nil {
				return err
			}
			if err := tx.
				Model(&model.OrderRequest{}).
				Where("id = ?", pending[i].ID).
				Updates(map[string]interface{}{
					"status":       model.RequestStatusCancelled,
					"action_taken": now,
				}).Error; err != nil {
				return err
			}
		}

		// each member's unread in this group comes off their aggregate
		for i := range group.Members {
			m := &group.Members[i]
			if m.UnreadMessages == 0 {
				continue
			}
			if err := tx.
				Model(&model.User{}).
				Where("id = ?", m.UserID).
				Update("unread_messages", gorm.Expr("GREATEST(unread_messages - ?, 0)", m.UnreadMessages)).Error; err != nil {
				return err
			}
		}

		if len(messageIDs) > 0 {
			if err := tx.Where("message_id IN ?", messageIDs).Delete(&model.CompleteOrderRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("message_id IN ?", messageIDs).Delete(&model.OrderRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("message_id IN ?", messageIDs).Delete(&model.MessageFile{}).Error; err != nil {
				return err
			}
			if err := tx.Where("group_id = ?", groupID).Delete(&model.Message{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", groupID).Delete(&model.MessageGroup{}).Error
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	// attachment folders go after commit; a failed removal is only disk junk
	for _, id := range messageIDs {
		if err := s.cleaner.RemoveMessageFolder(ctx, groupID, id); err != nil {
			log.WithFields(map[string]interface{}{
				"group_id":   groupID,
				"message_id": id,
				"error":      err.Error(),
			}).Warn("Failed to remove message attachments")
		}
	}

	return &GroupResult{Group: group, RecipientSocketIDs: recipients}, nil
}

// ReadGroup marks everything in the group read for the user
func (s *groupService) ReadGroup(ctx context.Context, userID, groupID uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := unread.ClearGroupForUser(tx, groupID, userID)
		return err
	})
	return utils.MapInternal(err)
}

// ListGroups lists the user's conversations
func (s *groupService) ListGroups(ctx context.Context, userID uint64, opts pagination.Options) (*pagination.Page[model.MessageGroup], error) {
	return s.groupRepo.ListForUser(ctx, userID, opts)
}

// resolveUsers looks up users by username, failing when any name is unknown
func (s *groupService) resolveUsers(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	users, err := s.userRepo.ListByUsernames(ctx, usernames)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.Username] = true
	}
	for _, name := range usernames {
		if !found[name] {
			return nil, utils.NewError(utils.CodeNotFound, "user "+name+" not found")
		}
	}
	return users, nil
}

// enrollMembers inserts membership rows for the given usernames, skipping
// users that already belong, and returns the newly enrolled user ids
func (s *groupService) enrollMembers(ctx context.Context, group *model.MessageGroup, usernames []string) ([]uint64, error) {
	users, err := s.resolveUsers(ctx, usernames)
	if err != nil {
		return nil, err
	}

	var newIDs []uint64
	for _, u := range users {
		if group.Member(u.ID) == nil {
			newIDs = append(newIDs, u.ID)
		}
	}
	if len(newIDs) == 0 {
		return nil, nil
	}

	members := make([]model.GroupMember, 0, len(newIDs))
	for _, id := range newIDs {
		members = append(members, model.GroupMember{GroupID: group.ID, UserID: id})
	}
	if err := s.db.WithContext(ctx).Create(&members).Error; err != nil {
		return nil, utils.MapInternal(err)
	}
	return newIDs, nil
}

// sockets resolves live sockets for a set of users
func (s *groupService) sockets(ctx context.Context, userIDs []uint64) []string {
	if len(userIDs) == 0 {
		return nil
	}
	sockets, err := s.presence.SocketIDs(ctx, userIDs)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve member sockets")
		return nil
	}
	return sockets
}

// socketsExcept resolves the live sockets of every member but one. Presence
// failures degrade to nobody online.
func (s *groupService) socketsExcept(ctx context.Context, group *model.MessageGroup, exceptUserID uint64) []string {
	ids := make([]uint64, 0, len(group.Members))
	for _, m := range group.Members {
		if m.UserID != exceptUserID {
			ids = append(ids, m.UserID)
		}
	}

	sockets, err := s.presence.SocketIDs(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve member sockets")
		return nil
	}
	return sockets
}
