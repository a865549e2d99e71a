package handler

import (
	"net/http"

	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/logic"
	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Pagination 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// NewPagination 计算分页信息
func NewPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// LogicErrorResponse 按业务错误类别映射 HTTP 状态码
func LogicErrorResponse(c *gin.Context, err error) {
	switch logic.KindOf(err) {
	case logic.KindValidation:
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case logic.KindNotFound:
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case logic.KindForbidden:
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case logic.KindConflict, logic.KindUpstream:
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		ErrorResponse(c, http.StatusInternalServerError, "服务器内部错误")
	}
}
