package model

import (
	"time"

	"gorm.io/gorm"
)

// Campaign 众筹项目模型
type Campaign struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`
	CategoryID  uint   `json:"category_id" gorm:"index"`

	// 众筹信息
	GoalAmount    float64     `json:"goal_amount" gorm:"not null" binding:"required,min=0"`
	CurrentAmount float64     `json:"current_amount" gorm:"default:0"`
	MinimumPledge float64     `json:"minimum_pledge" gorm:"default:0"`
	BackerCount   int64       `json:"backer_count" gorm:"default:0"`
	FundingType   FundingType `json:"funding_type" gorm:"default:'all_or_nothing'"`
	Currency      string      `json:"currency" gorm:"default:'USD'"`

	// 时间信息
	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`

	// 状态
	Status CampaignStatus `json:"status" gorm:"default:'draft'"`

	// 创建者信息
	CreatorID uint `json:"creator_id" gorm:"not null;index"`

	// 关联
	Creator     User         `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Category    Category     `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	RewardTiers []RewardTier `json:"reward_tiers,omitempty" gorm:"foreignKey:CampaignID"`
	Pledges     []Pledge     `json:"pledges,omitempty" gorm:"foreignKey:CampaignID"`
}

// CampaignStatus 项目状态
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"     // 草稿
	CampaignStatusPending   CampaignStatus = "pending"   // 待开始
	CampaignStatusActive    CampaignStatus = "active"    // 进行中
	CampaignStatusCompleted CampaignStatus = "completed" // 成功结束
	CampaignStatusFailed    CampaignStatus = "failed"    // 未达标
	CampaignStatusCancelled CampaignStatus = "cancelled" // 已取消
)

// FundingType 众筹模式
type FundingType string

const (
	FundingTypeAllOrNothing FundingType = "all_or_nothing" // 未达标全额退回
	FundingTypeKeepItAll    FundingType = "keep_it_all"    // 达标与否均结算
)

// AcceptsPledges 项目当前是否可以接受支持
func (c *Campaign) AcceptsPledges(now time.Time) bool {
	return c.Status == CampaignStatusActive && !now.After(c.EndTime)
}

// campaignStatusTransitions 项目状态转移表
var campaignStatusTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:   {CampaignStatusPending, CampaignStatusCancelled},
	CampaignStatusPending: {CampaignStatusActive, CampaignStatusCancelled},
	CampaignStatusActive:  {CampaignStatusCompleted, CampaignStatusFailed, CampaignStatusCancelled},
}

// CanTransitionTo 判断项目状态是否允许转移
func (s CampaignStatus) CanTransitionTo(target CampaignStatus) bool {
	for _, t := range campaignStatusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}
