package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"anime-forge-api/pkg/logger"
)

// AuditConfig 审计配置
type AuditConfig struct {
	Enabled   bool
	SkipPaths []string
}

// Audit 访问审计。写请求记 info，读请求记 debug，5xx 记 warn；
// 项目内实体的变更另有溯源日志
func Audit(cfg AuditConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"user_id", c.GetString("user_id"),
			"project_id", c.GetString("project_id"),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Warn(ctx, "api audit", args...)
		case c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead:
			logger.Debug(ctx, "api audit", args...)
		default:
			logger.Info(ctx, "api audit", args...)
		}
	}
}

// DefaultAuditSkipPaths 探活与指标端点
var DefaultAuditSkipPaths = []string{"/health", "/ready", "/live", "/metrics"}
