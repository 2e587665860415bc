package seller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gigmarket/internal/model"
)

func TestApplyAward(t *testing.T) {
	next := &model.SellerLevel{ID: 2, XPRequired: 100}

	tests := []struct {
		name      string
		currentXP int
		levelID   uint64
		next      *model.SellerLevel
		amount    int
		wantXP    int
		wantLevel uint64
		promoted  bool
	}{
		{
			name:      "accumulates below threshold",
			currentXP: 20, levelID: 1, next: next, amount: 50,
			wantXP: 70, wantLevel: 1,
		},
		{
			name:      "promotes exactly at threshold",
			currentXP: 50, levelID: 1, next: next, amount: 50,
			wantXP: 0, wantLevel: 2, promoted: true,
		},
		{
			name:      "promotes with carry over",
			currentXP: 80, levelID: 1, next: next, amount: 50,
			wantXP: 30, wantLevel: 2, promoted: true,
		},
		{
			name:      "top level keeps accumulating",
			currentXP: 900, levelID: 5, next: nil, amount: 50,
			wantXP: 950, wantLevel: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyAward(tt.currentXP, tt.levelID, tt.next, tt.amount)
			assert.Equal(t, tt.wantXP, got.XP)
			assert.Equal(t, tt.wantLevel, got.LevelID)
			assert.Equal(t, tt.promoted, got.Promoted)
		})
	}
}
