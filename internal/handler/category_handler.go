package handler

import (
	"net/http"

	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类处理器
type CategoryHandler struct {
	categoryLogic *logic.CategoryLogic
}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler(categoryLogic *logic.CategoryLogic) *CategoryHandler {
	return &CategoryHandler{categoryLogic: categoryLogic}
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateCategory 创建分类
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	category, err := h.categoryLogic.CreateCategory(c.Request.Context(),
		middleware.CurrentUserRole(c), req.Name, req.Description)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建分类成功", category)
}

// ListCategories 分类列表
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryLogic.ListCategories(c.Request.Context())
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取分类列表成功", gin.H{"categories": categories})
}

// DeleteCategory 删除分类
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id", "无效的分类ID")
	if !ok {
		return
	}

	if err := h.categoryLogic.DeleteCategory(c.Request.Context(),
		middleware.CurrentUserRole(c), id); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "删除分类成功", nil)
}
