package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"anime-forge-api/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 64
)

// RequestID 沿用客户端传入的请求 ID，缺失或过长时生成新的
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.RequestIDKey, id))
		c.Next()
	}
}
