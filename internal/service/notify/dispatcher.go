// Package notify persists notifications and resolves where to deliver them
// live. Persistence runs on the caller's transaction; delivery is the
// caller's job once the transaction has committed.
package notify

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/internal/monitor"
	"gigmarket/internal/presence"
	"gigmarket/internal/service/unread"
	"gigmarket/pkg/utils"
)

// Delivery a persisted notification plus the socket to push it to. SocketID
// is empty when the recipient is offline.
type Delivery struct {
	Notification *model.Notification
	SocketID     string
}

// Dispatcher creates notifications for users
type Dispatcher struct {
	presence *presence.Tracker
}

// NewDispatcher creates a dispatcher
func NewDispatcher(tracker *presence.Tracker) *Dispatcher {
	return &Dispatcher{presence: tracker}
}

// Dispatch stores a notification on the caller's transaction, bumps the
// recipient's unread aggregate and looks up their socket. Settings gating is
// the caller's responsibility; by the time Dispatch runs the notification is
// wanted.
func (d *Dispatcher) Dispatch(ctx context.Context, tx *gorm.DB, userID uint64, title, text string, navigateTo *string) (*Delivery, error) {
	notification := &model.Notification{
		UserID:     userID,
		Title:      title,
		Text:       text,
		NavigateTo: navigateTo,
		Unread:     true,
	}

	if err := tx.Create(notification).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}

	if err := unread.BumpUser(tx, userID, unread.FieldNotifications); err != nil {
		return nil, err
	}

	socketID, err := d.presence.SocketID(ctx, userID)
	if err != nil {
		// presence is best effort; losing it only costs the live push
		socketID = ""
	}

	monitor.NotificationsDispatched.Inc()

	return &Delivery{Notification: notification, SocketID: socketID}, nil
}
