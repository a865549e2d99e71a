package handler

import (
	"time"

	"github.com/blues/cps/internal/model"
)

// 用户相关响应模型

// UserResponse 用户响应模型
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// 项目相关响应模型

// CampaignResponse 项目响应模型
type CampaignResponse struct {
	ID            uint                 `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	ImageURL      string               `json:"imageUrl"`
	CategoryID    uint                 `json:"categoryId"`
	CreatorID     uint                 `json:"creatorId"`
	GoalAmount    float64              `json:"goalAmount"`
	CurrentAmount float64              `json:"currentAmount"`
	MinimumPledge float64              `json:"minimumPledge"`
	BackerCount   int64                `json:"backerCount"`
	FundingType   string               `json:"fundingType"`
	Currency      string               `json:"currency"`
	Status        string               `json:"status"`
	StartTime     time.Time            `json:"startTime"`
	EndTime       time.Time            `json:"endTime"`
	RewardTiers   []RewardTierResponse `json:"rewardTiers,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// RewardTierResponse 回报档位响应模型
type RewardTierResponse struct {
	ID                uint       `json:"id"`
	CampaignID        uint       `json:"campaignId"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Amount            float64    `json:"amount"`
	QuantityLimit     *int       `json:"quantityLimit"`
	QuantityClaimed   int        `json:"quantityClaimed"`
	SoldOut           bool       `json:"soldOut"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// 支持记录相关响应模型

// PledgeResponse 支持记录响应模型
type PledgeResponse struct {
	ID                    uint                `json:"id"`
	CampaignID            uint                `json:"campaignId"`
	CampaignTitle         string              `json:"campaignTitle,omitempty"`
	BackerID              uint                `json:"backerId"`
	RewardTierID          *uint               `json:"rewardTierId"`
	RewardTier            *RewardTierResponse `json:"rewardTier,omitempty"`
	Amount                float64             `json:"amount"`
	Currency              string              `json:"currency"`
	Status                string              `json:"status"`
	FulfillmentStatus     string              `json:"fulfillmentStatus"`
	PayPalOrderID         string              `json:"paypalOrderId,omitempty"`
	ShippingAddress       string              `json:"shippingAddress,omitempty"`
	EstimatedDeliveryDate *time.Time          `json:"estimatedDeliveryDate"`
	ConfirmedAt           *time.Time          `json:"confirmedAt"`
	CreatedAt             time.Time           `json:"createdAt"`
}

// GetPledgesResponse 支持记录列表响应
type GetPledgesResponse struct {
	Pledges    []PledgeResponse       `json:"pledges"`
	Stats      map[string]interface{} `json:"stats,omitempty"`
	Pagination Pagination             `json:"pagination"`
}

// 流水相关响应模型

// TransactionResponse 流水响应模型
type TransactionResponse struct {
	ID              uint      `json:"id"`
	PledgeID        uint      `json:"pledgeId"`
	CampaignID      uint      `json:"campaignId"`
	GrossAmount     float64   `json:"grossAmount"`
	PlatformFee     float64   `json:"platformFee"`
	ProcessingFee   float64   `json:"processingFee"`
	NetAmount       float64   `json:"netAmount"`
	Currency        string    `json:"currency"`
	PayPalCaptureID string    `json:"paypalCaptureId"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// 转换函数

// ToUserResponse 将用户模型转换为响应模型
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// ToCampaignResponse 将项目模型转换为响应模型
func ToCampaignResponse(campaign *model.Campaign) CampaignResponse {
	resp := CampaignResponse{
		ID:            campaign.ID,
		Title:         campaign.Title,
		Description:   campaign.Description,
		ImageURL:      campaign.ImageURL,
		CategoryID:    campaign.CategoryID,
		CreatorID:     campaign.CreatorID,
		GoalAmount:    campaign.GoalAmount,
		CurrentAmount: campaign.CurrentAmount,
		MinimumPledge: campaign.MinimumPledge,
		BackerCount:   campaign.BackerCount,
		FundingType:   string(campaign.FundingType),
		Currency:      campaign.Currency,
		Status:        string(campaign.Status),
		StartTime:     campaign.StartTime,
		EndTime:       campaign.EndTime,
		CreatedAt:     campaign.CreatedAt,
		UpdatedAt:     campaign.UpdatedAt,
	}
	for i := range campaign.RewardTiers {
		resp.RewardTiers = append(resp.RewardTiers, ToRewardTierResponse(&campaign.RewardTiers[i]))
	}
	return resp
}

// ToCampaignResponseList 将项目模型列表转换为响应模型列表
func ToCampaignResponseList(campaigns []model.Campaign) []CampaignResponse {
	result := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		result[i] = ToCampaignResponse(&campaigns[i])
	}
	return result
}

// ToRewardTierResponse 将档位模型转换为响应模型
func ToRewardTierResponse(tier *model.RewardTier) RewardTierResponse {
	return RewardTierResponse{
		ID:                tier.ID,
		CampaignID:        tier.CampaignID,
		Title:             tier.Title,
		Description:       tier.Description,
		Amount:            tier.Amount,
		QuantityLimit:     tier.QuantityLimit,
		QuantityClaimed:   tier.QuantityClaimed,
		SoldOut:           tier.SoldOut(),
		EstimatedDelivery: tier.EstimatedDelivery,
	}
}

// ToRewardTierResponseList 将档位模型列表转换为响应模型列表
func ToRewardTierResponseList(tiers []model.RewardTier) []RewardTierResponse {
	result := make([]RewardTierResponse, len(tiers))
	for i := range tiers {
		result[i] = ToRewardTierResponse(&tiers[i])
	}
	return result
}

// ToPledgeResponse 将支持记录模型转换为响应模型
func ToPledgeResponse(pledge *model.Pledge) PledgeResponse {
	resp := PledgeResponse{
		ID:                    pledge.ID,
		CampaignID:            pledge.CampaignID,
		CampaignTitle:         pledge.Campaign.Title,
		BackerID:              pledge.BackerID,
		RewardTierID:          pledge.RewardTierID,
		Amount:                pledge.Amount,
		Currency:              pledge.Currency,
		Status:                string(pledge.Status),
		FulfillmentStatus:     string(pledge.FulfillmentStatus),
		PayPalOrderID:         pledge.PayPalOrderID,
		ShippingAddress:       pledge.ShippingAddress,
		EstimatedDeliveryDate: pledge.EstimatedDeliveryDate,
		ConfirmedAt:           pledge.ConfirmedAt,
		CreatedAt:             pledge.CreatedAt,
	}
	if pledge.RewardTier != nil {
		tier := ToRewardTierResponse(pledge.RewardTier)
		resp.RewardTier = &tier
	}
	return resp
}

// ToPledgeResponseList 将支持记录模型列表转换为响应模型列表
func ToPledgeResponseList(pledges []model.Pledge) []PledgeResponse {
	result := make([]PledgeResponse, len(pledges))
	for i := range pledges {
		result[i] = ToPledgeResponse(&pledges[i])
	}
	return result
}

// ToTransactionResponse 将流水模型转换为响应模型
func ToTransactionResponse(txn *model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              txn.ID,
		PledgeID:        txn.PledgeID,
		CampaignID:      txn.CampaignID,
		GrossAmount:     txn.GrossAmount,
		PlatformFee:     txn.PlatformFee,
		ProcessingFee:   txn.ProcessingFee,
		NetAmount:       txn.NetAmount,
		Currency:        txn.Currency,
		PayPalCaptureID: txn.PayPalCaptureID,
		Status:          string(txn.Status),
		CreatedAt:       txn.CreatedAt,
	}
}

// ToTransactionResponseList 将流水模型列表转换为响应模型列表
func ToTransactionResponseList(txns []model.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(txns))
	for i := range txns {
		result[i] = ToTransactionResponse(&txns[i])
	}
	return result
}
