package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/middleware"
	"github.com/gin-gonic/gin"
)

// TransactionHandler 流水处理器
type TransactionHandler struct {
	transactionLogic *logic.TransactionLogic
}

// NewTransactionHandler 创建流水处理器
func NewTransactionHandler(transactionLogic *logic.TransactionLogic) *TransactionHandler {
	return &TransactionHandler{transactionLogic: transactionLogic}
}

// GetCreatorTransactions 发起人流水列表
func (h *TransactionHandler) GetCreatorTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	txns, total, err := h.transactionLogic.GetCreatorTransactions(c.Request.Context(),
		middleware.CurrentUserID(c), page, pageSize)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取流水成功", gin.H{
		"transactions": ToTransactionResponseList(txns),
		"pagination":   NewPagination(page, pageSize, total),
	})
}

// GetCreatorSettlement 发起人结算汇总
func (h *TransactionHandler) GetCreatorSettlement(c *gin.Context) {
	stats, err := h.transactionLogic.GetCreatorSettlement(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取结算汇总成功", gin.H{"settlement": stats})
}
