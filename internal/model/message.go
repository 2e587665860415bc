package model

import (
	"time"
)

// MessageGroup one negotiation thread per buyer per service post, uniquely
// keyed by (post, creator)
type MessageGroup struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    uint64    `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_group_post_creator" json:"post_id"`
	CreatorID uint64    `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_group_post_creator;index" json:"creator_id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Post    *ServicePost  `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Creator *User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// TableName set name
func (MessageGroup) TableName() string {
	return "message_groups"
}

// IsOwnedBy check if the group was created by the given user
func (g *MessageGroup) IsOwnedBy(userID uint64) bool {
	return g.CreatorID == userID
}

// MemberUserIDs returns the user ids of all members
func (g *MessageGroup) MemberUserIDs() []uint64 {
	ids := make([]uint64, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// Member returns the membership row of the given user, or nil
func (g *MessageGroup) Member(userID uint64) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// GroupMember membership row carrying the per-member unread counter
type GroupMember struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID        uint64    `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_member_group_user" json:"group_id"`
	UserID         uint64    `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_member_group_user;index" json:"user_id"`
	UnreadMessages int       `gorm:"type:int;not null;default:0" json:"unread_messages"`
	CreatedAt      time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName set name
func (GroupMember) TableName() string {
	return "group_members"
}

// Message a chat message. Immutable once created except for the embedded
// request's status. A message carries at most one of OrderRequest or
// CompleteOrderRequest.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID   uint64    `gorm:"type:bigint unsigned;not null;index" json:"group_id"`
	SenderID  uint64    `gorm:"type:bigint unsigned;not null;index" json:"sender_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`

	Sender               *User                 `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Files                []MessageFile         `gorm:"foreignKey:MessageID" json:"files,omitempty"`
	OrderRequest         *OrderRequest         `gorm:"foreignKey:MessageID" json:"order_request,omitempty"`
	CompleteOrderRequest *CompleteOrderRequest `gorm:"foreignKey:MessageID" json:"complete_order_request,omitempty"`
}

// TableName set name
func (Message) TableName() string {
	return "messages"
}

// MessageFile an attachment of a message
type MessageFile struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID uint64    `gorm:"type:bigint unsigned;not null;index" json:"message_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	URL       string    `gorm:"type:varchar(255);not null" json:"url"`
	Size      int64     `gorm:"type:bigint;not null;default:0" json:"size"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName set name
func (MessageFile) TableName() string {
	return "message_files"
}
