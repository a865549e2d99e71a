package model

import (
	"time"
)

// Transaction 资金流水记录，支付捕获成功后写入
type Transaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PledgeID   uint `json:"pledge_id" gorm:"not null;uniqueIndex"`
	CampaignID uint `json:"campaign_id" gorm:"not null;index"`

	// 金额拆分：毛额 = 平台费 + 渠道费 + 净额
	GrossAmount   float64 `json:"gross_amount" gorm:"not null"`
	PlatformFee   float64 `json:"platform_fee" gorm:"default:0"`
	ProcessingFee float64 `json:"processing_fee" gorm:"default:0"`
	NetAmount     float64 `json:"net_amount" gorm:"not null"`
	Currency      string  `json:"currency" gorm:"default:'USD'"`

	// 支付渠道信息
	PayPalCaptureID string            `json:"paypal_capture_id" gorm:"index"`
	Status          TransactionStatus `json:"status" gorm:"default:'completed'"`

	// 关联
	Pledge   Pledge   `json:"pledge,omitempty" gorm:"foreignKey:PledgeID"`
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
}

// TransactionStatus 流水状态
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed" // 已完成
	TransactionStatusRefunded  TransactionStatus = "refunded"  // 已退款
)
