package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
)

// Recovery 捕获 panic，返回统一的 500 信封
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered", fmt.Errorf("panic: %v", r),
				"route", c.FullPath(),
				"method", c.Request.Method,
				"request_id", c.GetString("request_id"),
				"stack", string(debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortWith(c, apperrors.ErrInternalError)
		}()
		c.Next()
	}
}
