package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/middleware"
	"github.com/gin-gonic/gin"
)

// PledgeHandler 支持/支付处理器
type PledgeHandler struct {
	pledgeLogic *logic.PledgeLogic
}

// NewPledgeHandler 创建支持处理器
func NewPledgeHandler(pledgeLogic *logic.PledgeLogic) *PledgeHandler {
	return &PledgeHandler{pledgeLogic: pledgeLogic}
}

type createOrderRequest struct {
	CampaignID   uint    `json:"campaignId" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	RewardTierID *uint   `json:"rewardTierId"`
}

// CreateOrder 下单
func (h *PledgeHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	result, err := h.pledgeLogic.CreateOrder(c.Request.Context(),
		middleware.CurrentUserID(c), req.CampaignID, req.Amount, req.RewardTierID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "支付订单创建成功", result)
}

type captureOrderRequest struct {
	OrderID  string `json:"orderId" binding:"required"`
	PledgeID uint   `json:"pledgeId" binding:"required"`
}

// CaptureOrder 捕获支付并确认支持记录
func (h *PledgeHandler) CaptureOrder(c *gin.Context) {
	var req captureOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	pledge, capture, err := h.pledgeLogic.CaptureOrder(c.Request.Context(),
		middleware.CurrentUserID(c), req.OrderID, req.PledgeID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "支付成功", gin.H{
		"pledge":        ToPledgeResponse(pledge),
		"captureResult": capture,
	})
}

type cancelOrderRequest struct {
	PledgeID uint `json:"pledgeId" binding:"required"`
}

// CancelOrder 取消未完成的支付
func (h *PledgeHandler) CancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	if err := h.pledgeLogic.CancelOrder(c.Request.Context(),
		middleware.CurrentUserID(c), req.PledgeID); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "已取消", gin.H{"pledgeId": req.PledgeID})
}

// UpdatePledge 手工更新支持记录（发起人推进履约，支持者取消）
func (h *PledgeHandler) UpdatePledge(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的支持记录ID")
	if !ok {
		return
	}

	var req logic.UpdatePledgeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	pledge, err := h.pledgeLogic.UpdatePledge(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "更新支持记录成功", gin.H{"pledge": ToPledgeResponse(pledge)})
}

// GetHistory 当前用户的支持历史
func (h *PledgeHandler) GetHistory(c *gin.Context) {
	backerID := middleware.CurrentUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	pledges, total, err := h.pledgeLogic.GetBackerPledges(c.Request.Context(), backerID, page, pageSize)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	stats, err := h.pledgeLogic.GetBackerStats(c.Request.Context(), backerID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取支持历史成功", GetPledgesResponse{
		Pledges:    ToPledgeResponseList(pledges),
		Stats:      stats,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// GetCampaignPledges 项目下的支持记录
func (h *PledgeHandler) GetCampaignPledges(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的项目ID")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	pledges, total, err := h.pledgeLogic.GetCampaignPledges(c.Request.Context(),
		middleware.CurrentUserID(c), id, page, pageSize)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	stats, err := h.pledgeLogic.GetCampaignStats(c.Request.Context(), id)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目支持记录成功", GetPledgesResponse{
		Pledges:    ToPledgeResponseList(pledges),
		Stats:      stats,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// GetCreatorPledges 发起人名下全部支持记录
func (h *PledgeHandler) GetCreatorPledges(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	pledges, total, err := h.pledgeLogic.GetCreatorPledges(c.Request.Context(),
		middleware.CurrentUserID(c), page, pageSize)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取支持记录成功", GetPledgesResponse{
		Pledges:    ToPledgeResponseList(pledges),
		Pagination: NewPagination(page, pageSize, total),
	})
}
