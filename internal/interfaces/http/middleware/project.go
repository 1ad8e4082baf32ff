// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"

	"anime-forge-api/pkg/logger"
)

// ProjectContext 将路由中的项目 ID 写入日志上下文
func ProjectContext(param string) gin.HandlerFunc {
	if param == "" {
		param = "pid"
	}
	return func(c *gin.Context) {
		if pid := c.Param(param); pid != "" {
			c.Set("project_id", pid)
			ctx := logger.WithContext(c.Request.Context(), logger.ProjectIDKey, pid)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
