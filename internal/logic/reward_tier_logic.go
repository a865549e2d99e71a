package logic

import (
	"context"
	"errors"
	"time"

	"github.com/blues/cps/internal/model"
	"gorm.io/gorm"
)

// RewardTierLogic 回报档位业务逻辑
type RewardTierLogic struct {
	db *gorm.DB
}

// NewRewardTierLogic 创建回报档位业务逻辑
func NewRewardTierLogic(db *gorm.DB) *RewardTierLogic {
	return &RewardTierLogic{db: db}
}

// RewardTierInput 档位创建/更新请求
type RewardTierInput struct {
	Title             string     `json:"title" binding:"required"`
	Description       string     `json:"description"`
	Amount            float64    `json:"amount" binding:"required,gt=0"`
	QuantityLimit     *int       `json:"quantityLimit"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// CreateTier 为项目新增档位，仅发起人可操作
func (r *RewardTierLogic) CreateTier(ctx context.Context, callerID, campaignID uint, input RewardTierInput) (*model.RewardTier, error) {
	if err := r.checkOwner(ctx, callerID, campaignID); err != nil {
		return nil, err
	}
	if input.QuantityLimit != nil && *input.QuantityLimit <= 0 {
		return nil, NewError(KindValidation, "限量数必须大于0")
	}

	tier := model.RewardTier{
		CampaignID:        campaignID,
		Title:             input.Title,
		Description:       input.Description,
		Amount:            input.Amount,
		QuantityLimit:     input.QuantityLimit,
		EstimatedDelivery: input.EstimatedDelivery,
	}
	if err := r.db.WithContext(ctx).Create(&tier).Error; err != nil {
		return nil, WrapError(KindInternal, err, "创建回报档位失败")
	}
	return &tier, nil
}

// ListTiers 项目档位列表
func (r *RewardTierLogic) ListTiers(ctx context.Context, campaignID uint) ([]model.RewardTier, error) {
	var tiers []model.RewardTier
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("amount ASC").
		Find(&tiers).Error; err != nil {
		return nil, WrapError(KindInternal, err, "查询回报档位失败")
	}
	return tiers, nil
}

// UpdateTier 更新档位，已有人认领后金额和限量不再允许修改
func (r *RewardTierLogic) UpdateTier(ctx context.Context, callerID, campaignID, tierID uint, input RewardTierInput) (*model.RewardTier, error) {
	if err := r.checkOwner(ctx, callerID, campaignID); err != nil {
		return nil, err
	}

	tier, err := r.findTier(ctx, campaignID, tierID)
	if err != nil {
		return nil, err
	}

	if tier.QuantityClaimed > 0 {
		if input.Amount != tier.Amount {
			return nil, NewError(KindConflict, "已有支持者认领，不能修改档位金额")
		}
		if !sameLimit(input.QuantityLimit, tier.QuantityLimit) {
			return nil, NewError(KindConflict, "已有支持者认领，不能修改限量数")
		}
	}
	if input.QuantityLimit != nil && *input.QuantityLimit <= 0 {
		return nil, NewError(KindValidation, "限量数必须大于0")
	}

	updates := map[string]interface{}{
		"title":              input.Title,
		"description":        input.Description,
		"amount":             input.Amount,
		"quantity_limit":     input.QuantityLimit,
		"estimated_delivery": input.EstimatedDelivery,
	}
	if err := r.db.WithContext(ctx).Model(tier).Updates(updates).Error; err != nil {
		return nil, WrapError(KindInternal, err, "更新回报档位失败")
	}
	return r.findTier(ctx, campaignID, tierID)
}

// DeleteTier 删除档位，已有人认领后不允许删除
func (r *RewardTierLogic) DeleteTier(ctx context.Context, callerID, campaignID, tierID uint) error {
	if err := r.checkOwner(ctx, callerID, campaignID); err != nil {
		return err
	}

	tier, err := r.findTier(ctx, campaignID, tierID)
	if err != nil {
		return err
	}
	if tier.QuantityClaimed > 0 {
		return NewError(KindConflict, "已有支持者认领，不能删除该档位")
	}

	if err := r.db.WithContext(ctx).Delete(tier).Error; err != nil {
		return WrapError(KindInternal, err, "删除回报档位失败")
	}
	return nil
}

func (r *RewardTierLogic) findTier(ctx context.Context, campaignID, tierID uint) (*model.RewardTier, error) {
	var tier model.RewardTier
	if err := r.db.WithContext(ctx).
		Where("id = ? AND campaign_id = ?", tierID, campaignID).
		First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "回报档位不存在")
		}
		return nil, WrapError(KindInternal, err, "查询回报档位失败")
	}
	return &tier, nil
}

func (r *RewardTierLogic) checkOwner(ctx context.Context, callerID, campaignID uint) error {
	var campaign model.Campaign
	if err := r.db.WithContext(ctx).First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewError(KindNotFound, "项目不存在")
		}
		return WrapError(KindInternal, err, "查询项目失败")
	}
	if campaign.CreatorID != callerID {
		return NewError(KindForbidden, "只有项目发起人可以管理回报档位")
	}
	return nil
}

func sameLimit(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
