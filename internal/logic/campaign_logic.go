package logic

import (
	"context"
	"errors"
	"time"

	"github.com/blues/cps/internal/model"
	"gorm.io/gorm"
)

// CampaignLogic 项目业务逻辑
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建项目业务逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// CreateCampaignInput 创建项目请求
type CreateCampaignInput struct {
	Title         string            `json:"title" binding:"required"`
	Description   string            `json:"description"`
	ImageURL      string            `json:"imageUrl"`
	CategoryID    uint              `json:"categoryId"`
	GoalAmount    float64           `json:"goalAmount" binding:"required,gt=0"`
	MinimumPledge float64           `json:"minimumPledge" binding:"min=0"`
	FundingType   model.FundingType `json:"fundingType" binding:"omitempty,oneof=all_or_nothing keep_it_all"`
	Currency      string            `json:"currency"`
	StartTime     time.Time         `json:"startTime" binding:"required"`
	EndTime       time.Time         `json:"endTime" binding:"required"`
}

// CreateCampaign 创建项目，初始为草稿状态
func (c *CampaignLogic) CreateCampaign(ctx context.Context, creatorID uint, input CreateCampaignInput) (*model.Campaign, error) {
	if !input.EndTime.After(input.StartTime) {
		return nil, NewError(KindValidation, "截止时间必须晚于开始时间")
	}
	if input.CategoryID != 0 {
		var count int64
		if err := c.db.WithContext(ctx).Model(&model.Category{}).
			Where("id = ?", input.CategoryID).Count(&count).Error; err != nil {
			return nil, WrapError(KindInternal, err, "查询分类失败")
		}
		if count == 0 {
			return nil, NewError(KindNotFound, "分类不存在")
		}
	}

	fundingType := input.FundingType
	if fundingType == "" {
		fundingType = model.FundingTypeAllOrNothing
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	campaign := model.Campaign{
		Title:         input.Title,
		Description:   input.Description,
		ImageURL:      input.ImageURL,
		CategoryID:    input.CategoryID,
		GoalAmount:    input.GoalAmount,
		MinimumPledge: input.MinimumPledge,
		FundingType:   fundingType,
		Currency:      currency,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Status:        model.CampaignStatusDraft,
		CreatorID:     creatorID,
	}
	if err := c.db.WithContext(ctx).Create(&campaign).Error; err != nil {
		return nil, WrapError(KindInternal, err, "创建项目失败")
	}
	return &campaign, nil
}

// CampaignFilter 项目列表过滤条件
type CampaignFilter struct {
	Status     model.CampaignStatus
	CategoryID uint
	CreatorID  uint
}

// ListCampaigns 项目列表
func (c *CampaignLogic) ListCampaigns(ctx context.Context, filter CampaignFilter, page, pageSize int) ([]model.Campaign, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	query := c.db.WithContext(ctx).Model(&model.Campaign{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.CreatorID != 0 {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, WrapError(KindInternal, err, "统计项目失败")
	}

	var campaigns []model.Campaign
	offset := (page - 1) * pageSize
	if err := query.Preload("Category").
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		return nil, 0, WrapError(KindInternal, err, "查询项目列表失败")
	}

	return campaigns, total, nil
}

// GetCampaign 项目详情
func (c *CampaignLogic) GetCampaign(ctx context.Context, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := c.db.WithContext(ctx).
		Preload("Category").
		Preload("RewardTiers").
		First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "项目不存在")
		}
		return nil, WrapError(KindInternal, err, "查询项目详情失败")
	}
	return &campaign, nil
}

// UpdateCampaignInput 更新项目请求，只允许改基本信息
type UpdateCampaignInput struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	ImageURL      *string    `json:"imageUrl"`
	MinimumPledge *float64   `json:"minimumPledge"`
	EndTime       *time.Time `json:"endTime"`
}

// UpdateCampaign 更新项目，仅发起人可操作
func (c *CampaignLogic) UpdateCampaign(ctx context.Context, callerID, id uint, input UpdateCampaignInput) (*model.Campaign, error) {
	campaign, err := c.ownedCampaign(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.MinimumPledge != nil {
		if *input.MinimumPledge < 0 {
			return nil, NewError(KindValidation, "最低支持金额不能为负数")
		}
		updates["minimum_pledge"] = *input.MinimumPledge
	}
	if input.EndTime != nil {
		if !input.EndTime.After(campaign.StartTime) {
			return nil, NewError(KindValidation, "截止时间必须晚于开始时间")
		}
		updates["end_time"] = *input.EndTime
	}

	if len(updates) > 0 {
		if err := c.db.WithContext(ctx).Model(campaign).Updates(updates).Error; err != nil {
			return nil, WrapError(KindInternal, err, "更新项目失败")
		}
	}
	return c.GetCampaign(ctx, id)
}

// SubmitCampaign 提交审核：草稿 → 待开始
func (c *CampaignLogic) SubmitCampaign(ctx context.Context, callerID, id uint) (*model.Campaign, error) {
	return c.transition(ctx, callerID, id, model.CampaignStatusPending)
}

// CancelCampaign 取消项目
func (c *CampaignLogic) CancelCampaign(ctx context.Context, callerID, id uint) (*model.Campaign, error) {
	return c.transition(ctx, callerID, id, model.CampaignStatusCancelled)
}

func (c *CampaignLogic) transition(ctx context.Context, callerID, id uint, target model.CampaignStatus) (*model.Campaign, error) {
	campaign, err := c.ownedCampaign(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if !campaign.Status.CanTransitionTo(target) {
		return nil, NewError(KindConflict, "不允许将项目状态从 %s 变更为 %s", campaign.Status, target)
	}
	if err := c.db.WithContext(ctx).Model(campaign).Update("status", target).Error; err != nil {
		return nil, WrapError(KindInternal, err, "更新项目状态失败")
	}
	campaign.Status = target
	return campaign, nil
}

// GetCampaignStats 项目筹款统计
func (c *CampaignLogic) GetCampaignStats(ctx context.Context, id uint) (map[string]interface{}, error) {
	campaign, err := c.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	progress := 0.0
	if campaign.GoalAmount > 0 {
		progress = campaign.CurrentAmount / campaign.GoalAmount
	}
	daysLeft := int(time.Until(campaign.EndTime).Hours() / 24)
	if daysLeft < 0 {
		daysLeft = 0
	}

	return map[string]interface{}{
		"campaign_id":    campaign.ID,
		"goal_amount":    campaign.GoalAmount,
		"current_amount": campaign.CurrentAmount,
		"backer_count":   campaign.BackerCount,
		"progress":       progress,
		"days_left":      daysLeft,
		"status":         campaign.Status,
	}, nil
}

func (c *CampaignLogic) ownedCampaign(ctx context.Context, callerID, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := c.db.WithContext(ctx).First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "项目不存在")
		}
		return nil, WrapError(KindInternal, err, "查询项目失败")
	}
	if campaign.CreatorID != callerID {
		return nil, NewError(KindForbidden, "只有项目发起人可以操作")
	}
	return &campaign, nil
}
