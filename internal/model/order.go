package model

import (
	"time"
)

// OrderRequest a buyer's request to purchase a package, embedded in a chat
// message. PENDING until resolved; terminal afterwards.
type OrderRequest struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID   uint64     `gorm:"type:bigint unsigned;uniqueIndex;not null" json:"message_id"`
	ClientID    uint64     `gorm:"type:bigint unsigned;not null;index" json:"client_id"`
	SellerID    uint64     `gorm:"type:bigint unsigned;not null;index" json:"seller_id"`
	PackageID   uint64     `gorm:"type:bigint unsigned;not null;index" json:"package_id"`
	Status      int8       `gorm:"type:tinyint;not null;default:1;index" json:"status"`
	SubTotal    int64      `gorm:"type:bigint;not null" json:"sub_total"` // pence
	Total       int64      `gorm:"type:bigint;not null" json:"total"`     // subTotal + service fee
	Expires     time.Time  `gorm:"type:timestamp;not null" json:"expires"`
	ActionTaken *time.Time `gorm:"type:timestamp" json:"action_taken,omitempty"`
	CreatedAt   time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Message *Message `gorm:"foreignKey:MessageID" json:"message,omitempty"`
	Client  *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Seller  *Seller  `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Package *Package `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

// TableName set name
func (OrderRequest) TableName() string {
	return "order_requests"
}

// RequestStatus order request status const
const (
	RequestStatusPending   = 1
	RequestStatusAccepted  = 2
	RequestStatusDeclined  = 3
	RequestStatusCancelled = 4
)

// IsPending check if request is pending
func (r *OrderRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsExpired check if request is expired
func (r *OrderRequest) IsExpired() bool {
	return time.Now().After(r.Expires)
}

// Order created when an order request is accepted
type Order struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID  uint64    `gorm:"type:bigint unsigned;not null;index" json:"client_id"`
	SellerID  uint64    `gorm:"type:bigint unsigned;not null;index" json:"seller_id"`
	PackageID uint64    `gorm:"type:bigint unsigned;not null;index" json:"package_id"`
	Status    int8      `gorm:"type:tinyint;not null;default:1;index" json:"status"`
	SubTotal  int64     `gorm:"type:bigint;not null" json:"sub_total"`
	Total     int64     `gorm:"type:bigint;not null" json:"total"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Client  *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Seller  *Seller  `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Package *Package `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

// TableName set name
func (Order) TableName() string {
	return "orders"
}

// OrderStatus order status const
const (
	OrderStatusActive    = 1
	OrderStatusCompleted = 2
	OrderStatusCancelled = 3
)

// IsActive check if order is active
func (o *Order) IsActive() bool {
	return o.Status == OrderStatusActive
}

// IsCompleted check if order is completed
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// CompleteOrderRequest a seller's request to mark an active order fulfilled,
// embedded in a chat message
type CompleteOrderRequest struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID   uint64     `gorm:"type:bigint unsigned;uniqueIndex;not null" json:"message_id"`
	OrderID     uint64     `gorm:"type:bigint unsigned;not null;index" json:"order_id"`
	Status      int8       `gorm:"type:tinyint;not null;default:1;index" json:"status"`
	Expires     time.Time  `gorm:"type:timestamp;not null" json:"expires"`
	ActionTaken *time.Time `gorm:"type:timestamp" json:"action_taken,omitempty"`
	CreatedAt   time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Message *Message `gorm:"foreignKey:MessageID" json:"message,omitempty"`
	Order   *Order   `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// TableName set name
func (CompleteOrderRequest) TableName() string {
	return "complete_order_requests"
}

// CompleteRequestStatus complete-order request status const
const (
	CompleteRequestStatusPending   = 1
	CompleteRequestStatusAccepted  = 2
	CompleteRequestStatusCancelled = 3
)

// IsPending check if complete request is pending
func (r *CompleteOrderRequest) IsPending() bool {
	return r.Status == CompleteRequestStatusPending
}
