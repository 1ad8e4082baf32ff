// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/infrastructure/persistence/redis"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// Limit 窗口内允许的请求数
	Limit int
	// Window 窗口长度，默认一分钟
	Window time.Duration
	// Scope 区分不同限流桶，如 "api"、"generate"
	Scope string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按用户限流，匿名请求按客户端 IP
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil || cfg.Limit <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}

	return func(c *gin.Context) {
		subject := c.GetString("user_id")
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		key := redis.BuildUserRateLimitKey(subject, cfg.Scope)

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err, "scope", cfg.Scope)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			abortWith(c, apperrors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
