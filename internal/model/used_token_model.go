package model

import "time"

// UsedToken marks an invitation as redeemed. The primary key makes the insert atomic.
type UsedToken struct {
	TokenID    string    `gorm:"type:varchar(64);primaryKey" json:"token_id"`
	RedeemedAt time.Time `gorm:"autoCreateTime" json:"redeemed_at"`
}

func (u *UsedToken) TableName() string {
	return "used_tokens"
}
