package model

import (
	"time"
)

// Seller one-to-one seller profile of a user
type Seller struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64    `gorm:"type:bigint unsigned;uniqueIndex;not null" json:"user_id"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Rating      float64   `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	XP          int       `gorm:"type:int;not null;default:0" json:"xp"`
	LevelID     uint64    `gorm:"type:bigint unsigned;not null;index" json:"level_id"`
	CreatedAt   time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	User  *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Level *SellerLevel `gorm:"foreignKey:LevelID" json:"level,omitempty"`
}

// TableName set name
func (Seller) TableName() string {
	return "sellers"
}

// SellerLevel seller level ladder. XPRequired is the XP needed to advance
// INTO this level from the previous one.
type SellerLevel struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"type:varchar(50);not null" json:"name"`
	XPRequired  int     `gorm:"type:int;not null" json:"xp_required"`
	NextLevelID *uint64 `gorm:"type:bigint unsigned" json:"next_level_id,omitempty"`

	NextLevel *SellerLevel `gorm:"foreignKey:NextLevelID" json:"next_level,omitempty"`
}

// TableName set name
func (SellerLevel) TableName() string {
	return "seller_levels"
}

// SavedSeller a user's bookmarked seller
type SavedSeller struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_saved_user_seller" json:"user_id"`
	SellerID  uint64    `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_saved_user_seller" json:"seller_id"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Seller *Seller `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

// TableName set name
func (SavedSeller) TableName() string {
	return "saved_sellers"
}
