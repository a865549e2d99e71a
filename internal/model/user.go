package model

import (
	"time"

	"gorm.io/gorm"
)

// User 平台用户模型
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Email        string `json:"email" gorm:"uniqueIndex;not null" binding:"required,email"`
	PasswordHash string `json:"-" gorm:"not null"`
	Name         string `json:"name" gorm:"not null"`
	AvatarURL    string `json:"avatar_url"`
	Role         UserRole `json:"role" gorm:"default:'backer'"`

	// 关联
	Campaigns []Campaign `json:"campaigns,omitempty" gorm:"foreignKey:CreatorID"`
	Pledges   []Pledge   `json:"pledges,omitempty" gorm:"foreignKey:BackerID"`
}

// UserRole 用户角色
type UserRole string

const (
	UserRoleBacker  UserRole = "backer"  // 支持者
	UserRoleCreator UserRole = "creator" // 发起人
	UserRoleAdmin   UserRole = "admin"   // 管理员
)
