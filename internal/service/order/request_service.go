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
	"gigmarket/internal/service/unread"
	"gigmarket/pkg/log"
	"gigmarket/pkg/utils"
)

// RequestResult an order-request change, the chat sockets to refresh and the
// counterpart's notification if one was raised
type RequestResult struct {
	Request            *model.OrderRequest
	Order              *model.Order
	Message            *model.Message
	RecipientSocketIDs []string
	Delivery           *notify.Delivery
}

// RequestService order request service interface
type RequestService interface {
	// Create an order request for a package, escrowing the total
	CreateRequest(ctx context.Context, buyerID, postID uint64, packageType string) (*RequestResult, error)

	// Resolve a pending request: the seller accepts or declines, the buyer
	// cancels
	ResolveRequest(ctx context.Context, requestID, actorID uint64, status int8) (*RequestResult, error)
}

// requestService order request service implementation
type requestService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
	groupRepo  repository.GroupRepository
	orderRepo  repository.OrderRepository
	dispatcher *notify.Dispatcher
	presence   *presence.Tracker
	market     *config.MarketConfig
}

// NewRequestService creates an order request service
func NewRequestService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	orderRepo repository.OrderRepository,
	dispatcher *notify.Dispatcher,
	tracker *presence.Tracker,
	market *config.MarketConfig,
) RequestService {
	return &requestService{
		db:         db,
		userRepo:   userRepo,
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		orderRepo:  orderRepo,
		dispatcher: dispatcher,
		presence:   tracker,
		market:     market,
	}
}

// CreateRequest validates the purchase, debits the buyer and drops the
// request into the conversation as a message. The buyer must already have a
// conversation open with the seller.
func (s *requestService) CreateRequest(ctx context.Context, buyerID, postID uint64, packageType string) (*RequestResult, error) {
	if !model.IsValidPackageType(packageType) {
		return nil, utils.NewError(utils.CodeBadRequest, "unknown package type")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if post.Seller == nil {
		return nil, utils.ErrSellerNotFound
	}
	if post.Seller.UserID == buyerID {
		return nil, utils.ErrOwnService
	}

	group, err := s.groupRepo.GetByPostAndCreator(ctx, postID, buyerID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if group == nil {
		return nil, utils.ErrMessageSellerFirst
	}

	if post.Hidden {
		return nil, utils.ErrPostNotFound
	}
	pkg, err := s.postRepo.GetPackage(ctx, postID, packageType)
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	// fast fail before taking any locks; re-checked inside the transaction
	pendingExists, err := s.orderRepo.HasPendingRequest(ctx, pkg.ID, buyerID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if pendingExists {
		return nil, utils.ErrRequestPending
	}

	subTotal := pkg.Amount
	total := utils.ApplyServiceFee(subTotal, s.market.ServiceFee)

	request := &model.OrderRequest{
		ClientID:  buyerID,
		SellerID:  post.SellerID,
		PackageID: pkg.ID,
		Status:    model.RequestStatusPending,
		SubTotal:  subTotal,
		Total:     total,
		Expires:   time.Now().Add(s.market.RequestValidity()),
	}

	var (
		message  *model.Message
		delivery *notify.Delivery
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock the buyer row so the open-request check, the funds check and
		// the debit act as one unit against a concurrent create
		var buyer model.User
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", buyerID).
			First(&buyer).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrUserNotFound
			}
			return err
		}

		var open int64
		err = tx.
			Model(&model.OrderRequest{}).
			Where("package_id = ? AND client_id = ? AND status = ? AND expires > NOW()",
				pkg.ID, buyerID, model.RequestStatusPending).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return utils.ErrRequestPending
		}

		if buyer.Balance < total {
			return utils.NewInsufficientFunds(total - buyer.Balance)
		}
		if err := ledger.Debit(tx, buyerID, total); err != nil {
			return err
		}

		message = &model.Message{
			GroupID:  group.ID,
			SenderID: buyerID,
			Body:     fmt.Sprintf("%s requested the %s package", buyer.Username, pkg.Type),
		}
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		request.MessageID = message.ID
		if err := tx.Create(request).Error; err != nil {
			return err
		}

		if err := unread.BumpGroup(tx, group.ID); err != nil {
			return err
		}

		sellerUser, err := s.userRepo.GetByID(ctx, post.Seller.UserID)
		if err != nil {
			return err
		}
		if sellerUser.AllowsNotification(model.SettingOrderRequests) {
			navigateTo := fmt.Sprintf("/groups/%d", group.ID)
			delivery, err = s.dispatcher.Dispatch(ctx, tx, sellerUser.ID,
				"New order request",
				fmt.Sprintf("%s requested the %s package of %s for %s",
					buyer.Username, pkg.Type, post.Title, utils.FormatGBP(total)),
				&navigateTo)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	monitor.OrderRequestsCreated.Inc()
	message.OrderRequest = request

	return &RequestResult{
		Request:            request,
		Message:            message,
		RecipientSocketIDs: s.groupSocketsExcept(ctx, group.ID, buyerID),
		Delivery:           delivery,
	}, nil
}

// ResolveRequest moves a pending request to a terminal state. Accepting
// creates the order and keeps the escrowed total; declining or cancelling
// refunds the buyer in full.
func (s *requestService) ResolveRequest(ctx context.Context, requestID, actorID uint64, status int8) (*RequestResult, error) {
	if status != model.RequestStatusAccepted &&
		status != model.RequestStatusDeclined &&
		status != model.RequestStatusCancelled {
		return nil, utils.NewError(utils.CodeBadRequest, "unknown request action")
	}

	request, err := s.orderRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, utils.MapInternal(err)
	}
	if request.Seller == nil {
		return nil, utils.ErrSellerNotFound
	}

	switch status {
	case model.RequestStatusCancelled:
		if actorID != request.ClientID {
			return nil, utils.ErrNotYourRequest
		}
	default:
		if actorID != request.Seller.UserID {
			return nil, utils.ErrNotYourRequest
		}
	}

	if !request.IsPending() {
		return nil, utils.ErrRequestResolved
	}
	// an expired request can still be declined or cancelled (refund paths),
	// it just can no longer be accepted
	if request.IsExpired() && status == model.RequestStatusAccepted {
		return nil, utils.ErrRequestExpired
	}

	var (
		order    *model.Order
		delivery *notify.Delivery
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// guard against a concurrent resolution of the same request
		result := tx.
			Model(&model.OrderRequest{}).
			Where("id = ? AND status = ?", requestID, model.RequestStatusPending).
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

		switch status {
		case model.RequestStatusAccepted:
			order = &model.Order{
				ClientID:  request.ClientID,
				SellerID:  request.SellerID,
				PackageID: request.PackageID,
				Status:    model.OrderStatusActive,
				SubTotal:  request.SubTotal,
				Total:     request.Total,
			}
			if err := tx.Create(order).Error; err != nil {
				return err
			}
		default:
			if err := ledger.Credit(tx, request.ClientID, request.Total); err != nil {
				return err
			}
		}

		return s.notifyCounterpart(ctx, tx, request, status, &delivery)
	})
	if err != nil {
		return nil, utils.MapInternal(err)
	}

	monitor.OrderRequestsResolved.WithLabelValues(statusLabel(status)).Inc()

	var recipients []string
	if request.Message != nil {
		recipients = s.groupSocketsExcept(ctx, request.Message.GroupID, actorID)
	}

	return &RequestResult{
		Request:            request,
		Order:              order,
		Message:            request.Message,
		RecipientSocketIDs: recipients,
		Delivery:           delivery,
	}, nil
}

// notifyCounterpart tells the other party how the request ended, respecting
// their notification settings
func (s *requestService) notifyCounterpart(ctx context.Context, tx *gorm.DB, request *model.OrderRequest, status int8, delivery **notify.Delivery) error {
	var recipientID, actorUserID uint64
	switch status {
	case model.RequestStatusCancelled:
		recipientID = request.Seller.UserID
		actorUserID = request.ClientID
	default:
		recipientID = request.ClientID
		actorUserID = request.Seller.UserID
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return err
	}
	if !recipient.AllowsNotification(model.SettingOrderRequests) {
		return nil
	}

	actor, err := s.userRepo.GetByID(ctx, actorUserID)
	if err != nil {
		return err
	}

	var title, text string
	switch status {
	case model.RequestStatusAccepted:
		title = "Order request accepted"
		text = fmt.Sprintf("%s accepted your order request, the order is now active",
			actor.Username)
	case model.RequestStatusDeclined:
		title = "Order request declined"
		text = fmt.Sprintf("%s declined your order request, %s was returned to your balance",
			actor.Username, utils.FormatGBP(request.Total))
	case model.RequestStatusCancelled:
		title = "Order request cancelled"
		text = fmt.Sprintf("%s cancelled their order request", actor.Username)
	}

	var navigateTo *string
	if request.Message != nil {
		to := fmt.Sprintf("/groups/%d", request.Message.GroupID)
		navigateTo = &to
	}

	d, err := s.dispatcher.Dispatch(ctx, tx, recipientID, title, text, navigateTo)
	if err != nil {
		return err
	}
	*delivery = d
	return nil
}

// groupSocketsExcept resolves the live sockets of a group's members, leaving
// out the acting user
func (s *requestService) groupSocketsExcept(ctx context.Context, groupID, exceptUserID uint64) []string {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		log.WithError(err).Warn("Failed to load group for delivery fan-out")
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
		log.WithError(err).Warn("Failed to resolve member sockets")
		return nil
	}
	return sockets
}

func statusLabel(status int8) string {
	switch status {
	case model.RequestStatusAccepted:
		return "accepted"
	case model.RequestStatusDeclined:
		return "declined"
	case model.RequestStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
