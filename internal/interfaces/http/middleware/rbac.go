// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/session"
	apperrors "anime-forge-api/pkg/errors"
)

// RequireRole 要求会话持有任一角色，否则返回 403
func RequireRole(roles ...entity.AppRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok {
			abortWith(c, apperrors.ErrUnauthorized)
			return
		}
		for _, r := range roles {
			if sess.HasRole(r) {
				c.Next()
				return
			}
		}
		abortWith(c, apperrors.ErrPermissionDenied.WithDetail("role not allowed"))
	}
}

// RequireAdmin 管理员权限检查
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(entity.AppRoleAdmin)
}
