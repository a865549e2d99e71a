package model

import (
	"time"
)

// Category 项目分类
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `json:"name" gorm:"uniqueIndex;not null" binding:"required"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`

	// 关联
	Campaigns []Campaign `json:"campaigns,omitempty" gorm:"foreignKey:CategoryID"`
}
