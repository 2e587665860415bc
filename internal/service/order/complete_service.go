package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gigmarket/internal/config"
	"gigmarket/internal/model"
	"gigmarket/internal/monitor"
	"gigmarket/internal/presence"
	"gigmarket/internal/repository"
	"gigmarket/internal/service/ledger"
	"gigmarket/internal/service/notify"
	"gigmarket/internal/service/seller"
	"gigmarket/internal/service/unread"
	"gigmarket/pkg/utils"
)

// CompleteResult a complete-order request change plus its fan-out
type CompleteResult struct {
	Request            *model.CompleteOrderRequest
	Order              *model.Order
	Message            *model.Message
	RecipientSocketIDs []string
	Delivery           *notify.Delivery
}

// CompleteService complete-order request service interface
type CompleteService interface {
	// The seller asks the buyer to confirm the order is fulfilled
	CreateRequest(ctx context.Context, sellerUserID, orderID uint64) (*CompleteResult, error)

	// Resolve a pending request: the buyer accepts, the seller cancels
	ResolveRequest(ctx context.Context, requestID, actorID uint64, status int8) (*CompleteResult, error)
}

// completeService complete-order request service implementation
type completeService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	groupRepo  repository.GroupRepository
	orderRepo  repository.OrderRepository
	dispatcher *notify.Dispatcher
	presence   *presence.Tracker
	market     *config.MarketConfig
}

// NewCompleteService creates a complete-order request service
func NewCompleteService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	groupRepo repository.GroupRepository,
	orderRepo repository.OrderRepository,
	dispatcher *notify.Dispatcher,
	tracker *presence.Tracker,
	market *config.MarketConfig,
) CompleteService {
	return &completeService{
		db:         db,
		userRepo:   userRepo,
		groupRepo:  groupRepo,
		orderRepo:  orderRepo,
		dispatcher: dispatcher,
		presence:   tracker,
		market:     market,
	}
}

// CreateRequest drops a completion request into the order's conversation.
// Only the seller of an active order may ask, and only one request can be
// pending per order. No notification is raised; the chat message itself is
// the signal.
func (s *completeService) CreateRequest(ctx context.Context, sellerUserID, orderID uint64) (*CompleteResult, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if order.Seller == nil {
		return nil, utils.ErrSellerNotFound
	}
	if order.Seller.UserID != sellerUserID {
		return nil, utils.NewError(utils.CodeForbidden, "only the seller may request completion")
	}
	if !order.IsActive() {
		return nil, utils.ErrOrderNotActive
	}

	pendingExists, err := s.orderRepo.HasPendingCompleteRequest(ctx, orderID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if pendingExists {
		return nil, utils.ErrCompletePending
	}

	if order.Package == nil {
		return nil, utils.ErrPackageNotFound
	}
	group, err := s.groupRepo.GetByPostAndCreator(ctx, order.Package.PostID, order.ClientID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if group == nil {
		return nil, utils.ErrGroupNotFound
	}

	sellerName := "the seller"
	if order.Seller.User != nil {
		sellerName = order.Seller.User.Username
	}

	message := &model.Message{
		GroupID:  group.ID,
		SenderID: sellerUserID,
		Body:     fmt.Sprintf("%s marked the order as delivered", sellerName),
	}
	request := &model.CompleteOrderRequest{
		OrderID: orderID,
		Status:  model.CompleteRequestStatusPending,
		Expires: time.Now().Add(s.market.RequestValidity()),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock the order row so two concurrent completion requests serialize
		// and the one-open-request-per-order rule holds
		var locked model.Order
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			First(&locked).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrOrderNotFound
			}
			return err
		}
		if !locked.IsActive() {
			return utils.ErrOrderNotActive
		}

		var open int64
		err = tx.
			Model(&model.CompleteOrderRequest{}).
			Where("order_id = ? AND status = ? AND expires > NOW()",
				orderID, model.CompleteRequestStatusPending).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return utils.ErrCompletePending
		}

		if err := tx.Create(message).Error; err != nil {
			return err
		}
		request.MessageID = message.ID
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		return unread.BumpGroup(tx, group.ID)
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	message.CompleteOrderRequest = request

	return &CompleteResult{
		Request:            request,
		Order:              order,
		Message:            message,
		RecipientSocketIDs: s.groupSocketsExcept(ctx, group.ID, sellerUserID),
	}, nil
}

// ResolveRequest settles a completion request. Acceptance completes the
// order, releases the escrowed subtotal to the seller and grants them XP;
// the platform keeps the service fee.
func (s *completeService) ResolveRequest(ctx context.Context, requestID, actorID uint64, status int8) (*CompleteResult, error) {
	if status != model.CompleteRequestStatusAccepted &&
		status != model.CompleteRequestStatusCancelled {
		return nil, utils.NewError(utils.CodeBadRequest, "unknown request action")
	}

	request, err := s.orderRepo.GetCompleteRequestByID(ctx, requestID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, request.OrderID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if order.Seller == nil {
		return nil, utils.ErrSellerNotFound
	}

	switch status {
	case model.CompleteRequestStatusAccepted:
		if actorID != order.ClientID {
			return nil, utils.ErrNotYourRequest
		}
	case model.CompleteRequestStatusCancelled:
		if actorID != order.Seller.UserID {
			return nil, utils.ErrNotYourRequest
		}
	}

	if !request.IsPending() {
		return nil, utils.ErrRequestResolved
	}
	// expiry only blocks acceptance; the seller can still withdraw an
	// expired delivery notice
	if time.Now().After(request.Expires) && status == model.CompleteRequestStatusAccepted {
		return nil, utils.ErrRequestExpired
	}

	var delivery *notify.Delivery

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.
			Model(&model.CompleteOrderRequest{}).
			Where("id = ? AND status = ?", requestID, model.CompleteRequestStatusPending).
			Updates(map[string]interface{}{
				"status":       status,
				"action_taken": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrRequestResolved
		}
		request.Status = status
		request.ActionTaken = &now

		if status != model.CompleteRequestStatusAccepted {
			return nil
		}

		if err := tx.
			Model(&model.Order{}).
			Where("id = ?", order.ID).
			Update("status", model.OrderStatusCompleted).Error; err != nil {
			return err
		}
		order.Status = model.OrderStatusCompleted

		if err := ledger.Credit(tx, order.Seller.UserID, order.SubTotal); err != nil {
			return err
		}
		if err := seller.AwardXP(tx, order.SellerID, s.market.CompletionXP); err != nil {
			return err
		}

		sellerUser, err := s.userRepo.GetByID(ctx, order.Seller.UserID)
		if err != nil {
			return err
		}
		if !sellerUser.AllowsNotification(model.SettingOrders) {
			return nil
		}

		var navigateTo *string
		if request.Message != nil {
			to := fmt.Sprintf("/groups/%d", request.Message.GroupID)
			navigateTo = &to
		}
		delivery, err = s.dispatcher.Dispatch(ctx, tx, sellerUser.ID,
			"Order completed",
			fmt.Sprintf("the order was completed, %s was added to your balance",
				utils.FormatGBP(order.SubTotal)),
			navigateTo)
		return err
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	monitor.CompleteRequestsResolved.WithLabelValues(completeStatusLabel(status)).Inc()

	var recipients []string
	if request.Message != nil {
		recipients = s.groupSocketsExcept(ctx, request.Message.GroupID, actorID)
	}

	return &CompleteResult{
		Request:            request,
		Order:              order,
		Message:            request.Message,
		RecipientSocketIDs: recipients,
		Delivery:           delivery,
	}, nil
}

func (s *completeService) groupSocketsExcept(ctx context.Context, groupID, exceptUserID uint64) []string {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil
	}

	ids := make([]uint64, 0, len(group.Members))
	for _, m := range group.Members {
		if m.UserID != exceptUserID {
			ids = append(ids, m.UserID)
		}
	}

	sockets, err := s.presence.SocketIDs(ctx, ids)
	if err != nil {
		return nil
	}
	return sockets
}

func completeStatusLabel(status int8) string {
	switch status {
	case model.CompleteRequestStatusAccepted:
		return "accepted"
	case model.CompleteRequestStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
