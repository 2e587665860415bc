// Package seller handles seller progression. XP accrues on completed orders;
// when accumulated XP reaches the next level's requirement the seller is
// promoted and the requirement is deducted, carrying the remainder forward.
package seller

import (
	"errors"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/pkg/utils"
)

// award the outcome of applying XP to a seller
type award struct {
	XP       int
	LevelID  uint64
	Promoted bool
}

// applyAward computes the new XP and level for one award. At most one
// promotion happens per award; a seller on the top rung just accumulates.
func applyAward(currentXP int, levelID uint64, next *model.SellerLevel, amount int) award {
	xp := currentXP + amount

	if next == nil || xp < next.XPRequired {
		return award{XP: xp, LevelID: levelID}
	}

	return award{
		XP:       xp - next.XPRequired,
		LevelID:  next.ID,
		Promoted: true,
	}
}

// AwardXP grants XP to a seller on the caller's transaction, promoting them
// if the next level's threshold is reached
func AwardXP(tx *gorm.DB, sellerID uint64, amount int) error {
	if amount <= 0 {
		return nil
	}

	var s model.Seller
	if err := tx.Where("id = ?", sellerID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrSellerNotFound
		}
		return err
	}

	var level model.SellerLevel
	if err := tx.Preload("NextLevel").Where("id = ?", s.LevelID).First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewError(utils.CodeNotFound, "seller level not found")
		}
		return err
	}

	result := applyAward(s.XP, s.LevelID, level.NextLevel, amount)

	return tx.
		Model(&model.Seller{}).
		Where("id = ?", sellerID).
		Updates(map[string]interface{}{
			"xp":       result.XP,
			"level_id": result.LevelID,
		}).Error
}
