package model

import (
	"time"
)

// Notification a persisted user notification. Never deleted; read state only
// flips Unread.
type Notification struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint64    `gorm:"type:bigint unsigned;not null;index" json:"user_id"`
	Title      string    `gorm:"type:varchar(200);not null" json:"title"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	NavigateTo *string   `gorm:"type:varchar(255)" json:"navigate_to,omitempty"`
	Unread     bool      `gorm:"not null;default:true;index" json:"unread"`
	CreatedAt  time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName set name
func (Notification) TableName() string {
	return "notifications"
}
