// Package ledger moves money between user balances. All amounts are integer
// pence; callers are expected to have verified funds before debiting, and to
// run Credit and Debit inside the same transaction as the records that
// justify them.
package ledger

import (
	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/pkg/utils"
)

// Credit adds amount pence to the user's balance
func Credit(tx *gorm.DB, userID uint64, amount int64) error {
	if amount < 0 {
		return utils.NewError(utils.CodeBadRequest, "credit amount must not be negative")
	}
	return apply(tx, userID, amount)
}

// Debit removes amount pence from the user's balance. No funds check is done
// here; the caller decides whether a negative balance is acceptable.
func Debit(tx *gorm.DB, userID uint64, amount int64) error {
	if amount < 0 {
		return utils.NewError(utils.CodeBadRequest, "debit amount must not be negative")
	}
	return apply(tx, userID, -amount)
}

func apply(tx *gorm.DB, userID uint64, delta int64) error {
	result := tx.
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", delta))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrUserNotFound
	}
	return nil
}
