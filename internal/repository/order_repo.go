package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/pagination"
	"gigmarket/pkg/utils"
)

// OrderRepository order and order-request repository interface
type OrderRepository interface {
	// Get order request by ID with its message and package
	GetRequestByID(ctx context.Context, id uint64) (*model.OrderRequest, error)

	// Check whether the client already has a pending request for the package
	HasPendingRequest(ctx context.Context, packageID, clientID uint64) (bool, error)

	// Get order by ID
	GetOrderByID(ctx context.Context, id uint64) (*model.Order, error)

	// List a user's orders as client or seller, newest first
	ListOrders(ctx context.Context, clientID, sellerID uint64, opts pagination.Options) (*pagination.Page[model.Order], error)

	// Get complete-order request by ID with its message and order
	GetCompleteRequestByID(ctx context.Context, id uint64) (*model.CompleteOrderRequest, error)

	// Check whether the order already has a pending complete-order request
	HasPendingCompleteRequest(ctx context.Context, orderID uint64) (bool, error)
}

// orderRepository order repository implementation
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// GetRequestByID gets an order request by ID
func (r *orderRepository) GetRequestByID(ctx context.Context, id uint64) (*model.OrderRequest, error) {
	var request model.OrderRequest
	err := r.db.WithContext(ctx).
		Preload("Message").
		Preload("Package").
		Preload("Seller").
		Where("id = ?", id).
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

// HasPendingRequest reports whether a live pending request already exists for
// the (package, client) pair. Expired rows do not count.
func (r *orderRepository) HasPendingRequest(ctx context.Context, packageID, clientID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderRequest{}).
		Where("package_id = ? AND client_id = ? AND status = ? AND expires > NOW()",
			packageID, clientID, model.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// GetOrderByID gets an order by ID
func (r *orderRepository) GetOrderByID(ctx context.Context, id uint64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Seller.User").
		Preload("Package").
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders lists orders where the user is the client or the seller. Either
// filter may be zero to skip it.
func (r *orderRepository) ListOrders(ctx context.Context, clientID, sellerID uint64, opts pagination.Options) (*pagination.Page[model.Order], error) {
	q := r.db.
		Model(&model.Order{}).
		Preload("Package").
		Preload("Seller.User")

	switch {
	case clientID != 0 && sellerID != 0:
		q = q.Where("client_id = ? OR seller_id = ?", clientID, sellerID)
	case clientID != 0:
		q = q.Where("client_id = ?", clientID)
	case sellerID != 0:
		q = q.Where("seller_id = ?", sellerID)
	}

	opts.Descending = true
	return pagination.Paginate[model.Order](ctx, q, opts)
}

// GetCompleteRequestByID gets a complete-order request by ID
func (r *orderRepository) GetCompleteRequestByID(ctx context.Context, id uint64) (*model.CompleteOrderRequest, error) {
	var request model.CompleteOrderRequest
	err := r.db.WithContext(ctx).
		Preload("Message").
		Preload("Order").
		Where("id = ?", id).
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

// HasPendingCompleteRequest reports whether a live pending complete-order
// request already exists for the order
func (r *orderRepository) HasPendingCompleteRequest(ctx context.Context, orderID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CompleteOrderRequest{}).
		Where("order_id = ? AND status = ? AND expires > NOW()",
			orderID, model.CompleteRequestStatusPending).
		Count(&count).Error
	return count > 0, err
}
