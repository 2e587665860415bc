package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User model
type User struct {
	ID                  uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username            string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email               *string    `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	PasswordHash        string     `gorm:"type:varchar(255);not null" json:"-"`
	Avatar              *string    `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Balance             int64      `gorm:"type:bigint;not null;default:0" json:"balance"` // pence
	UnreadMessages      int        `gorm:"type:int;not null;default:0" json:"unread_messages"`
	UnreadNotifications int        `gorm:"type:int;not null;default:0" json:"unread_notifications"`
	Settings            JSONObject `gorm:"type:json" json:"settings,omitempty"`
	Status              int8       `gorm:"type:tinyint;not null;default:1;index" json:"status"`
	LastLoginAt         *time.Time `gorm:"type:timestamp" json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Seller *Seller `gorm:"foreignKey:UserID" json:"seller,omitempty"`
}

// TableName set name
func (User) TableName() string {
	return "users"
}

// UserStatus user status const
const (
	UserStatusNormal   = 1
	UserStatusDisabled = 2
	UserStatusDeleted  = 3
)

// Notification setting keys. A missing key means the notification is allowed;
// only an explicit false disables it.
const (
	SettingOrders             = "orders"
	SettingOrderRequests      = "orderRequests"
	SettingMentionsAndReplies = "mentionsAndReplies"
)

// IsActive check if user is active
func (u *User) IsActive() bool {
	return u.Status == UserStatusNormal
}

// AllowsNotification reports whether the given notification kind is enabled
// for this user
func (u *User) AllowsNotification(key string) bool {
	if u.Settings == nil {
		return true
	}
	v, ok := u.Settings[key]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	return !ok || b
}

// JSONObject custom json object type
type JSONObject map[string]interface{}

// Value implement driver.Valuer interface
func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implement sql.Scanner interface
func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONObject", value)
	}

	return json.Unmarshal(bytes, j)
}
