package model

import (
	"time"
)

// ServicePost a seller's service listing
type ServicePost struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID  uint64    `gorm:"type:bigint unsigned;not null;index" json:"seller_id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	About     *string   `gorm:"type:text" json:"about,omitempty"`
	Hidden    bool      `gorm:"not null;default:false;index" json:"hidden"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Seller   *Seller   `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Packages []Package `gorm:"foreignKey:PostID" json:"packages,omitempty"`
}

// TableName set name
func (ServicePost) TableName() string {
	return "service_posts"
}

// Package a purchasable tier of a service post
type Package struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID       uint64    `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_package_post_type" json:"post_id"`
	Type         string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_package_post_type" json:"type"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Amount       int64     `gorm:"type:bigint;not null" json:"amount"` // pence
	DeliveryDays int       `gorm:"type:int;not null;default:1" json:"delivery_days"`
	CreatedAt    time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Post *ServicePost `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

// TableName set name
func (Package) TableName() string {
	return "packages"
}

// Package type const
const (
	PackageTypeBasic    = "basic"
	PackageTypeStandard = "standard"
	PackageTypePro      = "pro"
)

// IsValidPackageType check if the package type is known
func IsValidPackageType(t string) bool {
	switch t {
	case PackageTypeBasic, PackageTypeStandard, PackageTypePro:
		return true
	}
	return false
}
