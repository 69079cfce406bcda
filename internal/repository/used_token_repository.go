package repository

import (
	"context"

	"github.com/fadilmartias/assessment-proctor/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsedTokenRepository struct {
	db *gorm.DB
}

func NewUsedTokenRepository(db *gorm.DB) *UsedTokenRepository {
	return &UsedTokenRepository{db}
}

func (r *UsedTokenRepository) IsRedeemed(ctx context.Context, tokenID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.UsedToken{}).
		Where("token_id = ?", tokenID).
		Count(&n).Error
	return n > 0, err
}

// Redeem inserts the token id if absent. inserted is false when another request already
// redeemed it.
func (r *UsedTokenRepository) Redeem(ctx context.Context, tokenID string) (inserted bool, err error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UsedToken{TokenID: tokenID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
