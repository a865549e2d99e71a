package model

import (
	"time"

	"gorm.io/gorm"
)

// RewardTier 回报档位模型
type RewardTier struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	CampaignID  uint    `json:"campaign_id" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null" binding:"required"`
	Description string  `json:"description" gorm:"type:text"`
	Amount      float64 `json:"amount" gorm:"not null" binding:"required,min=0"`

	// 限量信息：QuantityLimit 为空表示不限量
	// QuantityClaimed 只增不减，有限量时不得超过 QuantityLimit
	QuantityLimit   *int `json:"quantity_limit"`
	QuantityClaimed int  `json:"quantity_claimed" gorm:"default:0"`

	EstimatedDelivery *time.Time `json:"estimated_delivery"`

	// 关联
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
}

// SoldOut 档位是否已被认领完
func (t *RewardTier) SoldOut() bool {
	return t.QuantityLimit != nil && t.QuantityClaimed >= *t.QuantityLimit
}
