package logic

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/blues/cps/internal/model"
	"gorm.io/gorm"
)

// CategoryLogic 分类业务逻辑
type CategoryLogic struct {
	db *gorm.DB
}

// NewCategoryLogic 创建分类业务逻辑
func NewCategoryLogic(db *gorm.DB) *CategoryLogic {
	return &CategoryLogic{db: db}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CreateCategory 创建分类，仅管理员可操作
func (c *CategoryLogic) CreateCategory(ctx context.Context, role model.UserRole, name, description string) (*model.Category, error) {
	if role != model.UserRoleAdmin {
		return nil, NewError(KindForbidden, "只有管理员可以管理分类")
	}

	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return nil, NewError(KindValidation, "分类名称无效")
	}

	category := model.Category{Name: name, Slug: slug, Description: description}
	if err := c.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewError(KindConflict, "分类已存在")
		}
		return nil, WrapError(KindInternal, err, "创建分类失败")
	}
	return &category, nil
}

// ListCategories 分类列表
func (c *CategoryLogic) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, WrapError(KindInternal, err, "查询分类失败")
	}
	return categories, nil
}

// DeleteCategory 删除分类，仅管理员可操作；仍有项目引用时拒绝
func (c *CategoryLogic) DeleteCategory(ctx context.Context, role model.UserRole, id uint) error {
	if role != model.UserRoleAdmin {
		return NewError(KindForbidden, "只有管理员可以管理分类")
	}

	var count int64
	if err := c.db.WithContext(ctx).Model(&model.Campaign{}).
		Where("category_id = ?", id).Count(&count).Error; err != nil {
		return WrapError(KindInternal, err, "查询分类引用失败")
	}
	if count > 0 {
		return NewError(KindConflict, "该分类下仍有项目，不能删除")
	}

	res := c.db.WithContext(ctx).Delete(&model.Category{}, id)
	if res.Error != nil {
		return WrapError(KindInternal, res.Error, "删除分类失败")
	}
	if res.RowsAffected == 0 {
		return NewError(KindNotFound, "分类不存在")
	}
	return nil
}
