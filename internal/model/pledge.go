package model

import (
	"time"
)

// Pledge 支持记录模型
type Pledge struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignID   uint  `json:"campaign_id" gorm:"not null;index"`
	BackerID     uint  `json:"backer_id" gorm:"not null;index"`
	RewardTierID *uint `json:"reward_tier_id" gorm:"index"`

	Amount   float64 `json:"amount" gorm:"not null"`
	Currency string  `json:"currency" gorm:"default:'USD'"`

	// 状态
	Status            PledgeStatus      `json:"status" gorm:"default:'pending';index"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status" gorm:"default:'pending'"`

	// 支付信息
	PayPalOrderID string     `json:"paypal_order_id" gorm:"index"`
	ConfirmedAt   *time.Time `json:"confirmed_at"`
	CancelledAt   *time.Time `json:"cancelled_at"`

	// 发货信息
	ShippingAddress       string     `json:"shipping_address" gorm:"type:text"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`

	// 关联
	Campaign   Campaign    `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
	Backer     User        `json:"backer,omitempty" gorm:"foreignKey:BackerID"`
	RewardTier *RewardTier `json:"reward_tier,omitempty" gorm:"foreignKey:RewardTierID"`
}

// PledgeStatus 支持记录状态
type PledgeStatus string

const (
	PledgeStatusPending   PledgeStatus = "pending"   // 待支付
	PledgeStatusConfirmed PledgeStatus = "confirmed" // 已确认
	PledgeStatusCancelled PledgeStatus = "cancelled" // 已取消
	PledgeStatusRefunded  PledgeStatus = "refunded"  // 已退款
)

// FulfillmentStatus 回报履约状态
type FulfillmentStatus string

const (
	FulfillmentStatusPending    FulfillmentStatus = "pending"    // 待处理
	FulfillmentStatusProcessing FulfillmentStatus = "processing" // 备货中
	FulfillmentStatusShipped    FulfillmentStatus = "shipped"    // 已发货
	FulfillmentStatusDelivered  FulfillmentStatus = "delivered"  // 已送达
	FulfillmentStatusDelayed    FulfillmentStatus = "delayed"    // 延期
	FulfillmentStatusRefunded   FulfillmentStatus = "refunded"   // 已退款
)

// PledgeActor 操作角色
type PledgeActor string

const (
	PledgeActorBacker  PledgeActor = "backer"  // 支持者本人
	PledgeActorCreator PledgeActor = "creator" // 项目发起人
)

// pledgeTransition 单条状态转移规则
type pledgeTransition struct {
	from  PledgeStatus
	to    PledgeStatus
	actor PledgeActor
}

// pledgeStatusTransitions 支持记录状态转移表：
// 发起人可以直接确认待支付记录（人工对账），也可以把已确认记录标记为退款；
// 支持者只能取消自己未支付的记录
var pledgeStatusTransitions = []pledgeTransition{
	{PledgeStatusPending, PledgeStatusConfirmed, PledgeActorCreator},
	{PledgeStatusConfirmed, PledgeStatusRefunded, PledgeActorCreator},
	{PledgeStatusPending, PledgeStatusCancelled, PledgeActorBacker},
}

// CanTransition 判断指定角色是否允许执行该状态转移
func (s PledgeStatus) CanTransition(target PledgeStatus, actor PledgeActor) bool {
	for _, t := range pledgeStatusTransitions {
		if t.from == s && t.to == target && t.actor == actor {
			return true
		}
	}
	return false
}

// fulfillmentTransitions 履约状态转移表，只有发起人可以推进，
// 且支持记录必须处于 confirmed 状态（由 logic 层保证）
var fulfillmentTransitions = map[FulfillmentStatus][]FulfillmentStatus{
	FulfillmentStatusPending:    {FulfillmentStatusProcessing, FulfillmentStatusDelayed},
	FulfillmentStatusProcessing: {FulfillmentStatusShipped, FulfillmentStatusDelayed},
	FulfillmentStatusShipped:    {FulfillmentStatusDelivered, FulfillmentStatusDelayed},
	FulfillmentStatusDelayed:    {FulfillmentStatusProcessing, FulfillmentStatusShipped},
	FulfillmentStatusDelivered:  {},
	FulfillmentStatusRefunded:   {},
}

// CanTransitionTo 判断履约状态是否允许转移
func (s FulfillmentStatus) CanTransitionTo(target FulfillmentStatus) bool {
	if target == FulfillmentStatusRefunded {
		// 退款可以从任意履约状态进入
		return s != FulfillmentStatusRefunded
	}
	for _, t := range fulfillmentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}
