package middleware

import (
	"net/http"
	"strings"

	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "auth_user_id"
	ctxUserRole = "auth_user_role"
)

// Auth 认证中间件，解析 Bearer 访问令牌并注入用户信息
func Auth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "缺少访问令牌",
			})
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "访问令牌无效或已过期",
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)
		c.Next()
	}
}

// CurrentUserID 读取当前用户ID，未认证时返回0
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentUserRole 读取当前用户角色
func CurrentUserRole(c *gin.Context) model.UserRole {
	if v, ok := c.Get(ctxUserRole); ok {
		if role, ok := v.(model.UserRole); ok {
			return role
		}
	}
	return model.UserRoleBacker
}
