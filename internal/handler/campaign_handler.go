package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/middleware"
	"github.com/blues/cps/internal/model"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 项目处理器
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
	tierLogic     *logic.RewardTierLogic
}

// NewCampaignHandler 创建项目处理器
func NewCampaignHandler(campaignLogic *logic.CampaignLogic, tierLogic *logic.RewardTierLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: campaignLogic,
		tierLogic:     tierLogic,
	}
}

// CreateCampaign 创建项目
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req logic.CreateCampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	campaign, err := h.campaignLogic.CreateCampaign(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建项目成功", ToCampaignResponse(campaign))
}

// ListCampaigns 项目列表
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	filter := logic.CampaignFilter{
		Status: model.CampaignStatus(c.Query("status")),
	}
	if v, err := strconv.ParseUint(c.Query("category_id"), 10, 32); err == nil {
		filter.CategoryID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("creator_id"), 10, 32); err == nil {
		filter.CreatorID = uint(v)
	}

	campaigns, total, err := h.campaignLogic.ListCampaigns(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目列表成功", gin.H{
		"campaigns":  ToCampaignResponseList(campaigns),
		"pagination": NewPagination(page, pageSize, total),
	})
}

// GetCampaign 项目详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(c.Request.Context(), id)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目详情成功", ToCampaignResponse(campaign))
}

// UpdateCampaign 更新项目
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	var req logic.UpdateCampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	campaign, err := h.campaignLogic.UpdateCampaign(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "更新项目成功", ToCampaignResponse(campaign))
}

// SubmitCampaign 提交项目
func (h *CampaignHandler) SubmitCampaign(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	campaign, err := h.campaignLogic.SubmitCampaign(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "项目已提交", ToCampaignResponse(campaign))
}

// CancelCampaign 取消项目
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	campaign, err := h.campaignLogic.CancelCampaign(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "项目已取消", ToCampaignResponse(campaign))
}

// GetCampaignStats 项目统计
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	stats, err := h.campaignLogic.GetCampaignStats(c.Request.Context(), id)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目统计成功", gin.H{"stats": stats})
}

// ListTiers 项目档位列表
func (h *CampaignHandler) ListTiers(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	tiers, err := h.tierLogic.ListTiers(c.Request.Context(), id)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取回报档位成功", gin.H{"tiers": ToRewardTierResponseList(tiers)})
}

// CreateTier 新增档位
func (h *CampaignHandler) CreateTier(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	var req logic.RewardTierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	tier, err := h.tierLogic.CreateTier(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建回报档位成功", ToRewardTierResponse(tier))
}

// UpdateTier 更新档位
func (h *CampaignHandler) UpdateTier(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}
	tierID, ok := paramID(c, "tier_id", "无效的档位ID")
	if !ok {
		return
	}

	var req logic.RewardTierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	tier, err := h.tierLogic.UpdateTier(c.Request.Context(), middleware.CurrentUserID(c), id, tierID, req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "更新回报档位成功", ToRewardTierResponse(tier))
}

// DeleteTier 删除档位
func (h *CampaignHandler) DeleteTier(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}
	tierID, ok := paramID(c, "tier_id", "无效的档位ID")
	if !ok {
		return
	}

	if err := h.tierLogic.DeleteTier(c.Request.Context(), middleware.CurrentUserID(c), id, tierID); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "删除回报档位成功", nil)
}

// paramID 解析路径参数里的数字ID
func paramID(c *gin.Context, name, errMsg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, errMsg)
		return 0, false
	}
	return uint(id), true
}
