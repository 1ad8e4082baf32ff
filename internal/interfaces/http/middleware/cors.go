package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// 前端需要读取的响应头：导出文件名、总数与限流信息
var exposedHeaders = []string{
	RequestIDHeader,
	"Content-Disposition",
	"X-Total-Count",
	"X-RateLimit-Limit",
	"Retry-After",
}

// CORS 跨域中间件。刷新令牌走 cookie，因此允许携带凭据，来源不能是通配符
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"http://localhost:5173"}
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader}
	}
	return cors.New(c)
}
