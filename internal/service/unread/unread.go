// Package unread maintains the denormalised unread counters. Per-group
// counters live on group_members; each user additionally carries aggregate
// unread_messages and unread_notifications columns. Every helper takes the
// caller's transaction so counter moves commit atomically with the event
// that caused them.
package unread

import (
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/pkg/utils"
)

// User aggregate counter columns
const (
	FieldMessages      = "unread_messages"
	FieldNotifications = "unread_notifications"
)

// BumpGroup increments the unread counter of every member of the group and
// each member's user aggregate in step, keeping the invariant that a user's
// aggregate equals the sum of their per-group counters.
func BumpGroup(tx *gorm.DB, groupID uint64) error {
	if err := tx.
		Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).
		Update("unread_messages", gorm.Expr("unread_messages + 1")).Error; err != nil {
		return err
	}

	return tx.
		Model(&model.User{}).
		Where("id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&model.GroupMember{}).
			Select("user_id").
			Where("group_id = ?", groupID)).
		Update("unread_messages", gorm.Expr("unread_messages + 1")).Error
}

// BumpUser increments one of the user's aggregate counters
func BumpUser(tx *gorm.DB, userID uint64, field string) error {
	if field != FieldMessages && field != FieldNotifications {
		return utils.NewError(utils.CodeBadRequest, "unknown unread counter")
	}

	return tx.
		Model(&model.User{}).
		Where("id = ?", userID).
		Update(field, gorm.Expr(field+" + 1")).Error
}

// ClearGroupForUser zeroes the member's counter for one group and subtracts
// the cleared amount from the user aggregate. Returns how many messages were
// cleared.
func ClearGroupForUser(tx *gorm.DB, groupID, userID uint64) (int, error) {
	var member model.GroupMember
	err := tx.
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, utils.ErrMemberNotFound
		}
		return 0, err
	}

	if member.UnreadMessages == 0 {
		return 0, nil
	}

	if err := tx.
		Model(&model.GroupMember{}).
		Where("id = ?", member.ID).
		Update("unread_messages", 0).Error; err != nil {
		return 0, err
	}

	if err := tx.
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("unread_messages", gorm.Expr("GREATEST(unread_messages - ?, 0)", member.UnreadMessages)).Error; err != nil {
		return 0, err
	}

	return member.UnreadMessages, nil
}
