// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/domain/session"
	"anime-forge-api/internal/interfaces/http/dto"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
)

// Authenticator 校验访问令牌
type Authenticator interface {
	Authenticate(token string) (*session.Session, error)
}

// AuthConfig 认证配置
type AuthConfig struct {
	// SkipPaths 按前缀跳过认证
	SkipPaths []string
	// Optional 为 true 时缺少令牌也放行，只在令牌存在时解析
	Optional bool
}

// Auth 认证中间件，成功后会话写入请求上下文
func Auth(authn Authenticator, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		token, err := bearerToken(c)
		if err != nil {
			if cfg.Optional && apperrors.ErrTokenMissing.Is(err) {
				c.Next()
				return
			}
			abortWith(c, err)
			return
		}

		sess, err := authn.Authenticate(token)
		if err != nil {
			abortWith(c, err)
			return
		}

		ctx := session.WithSession(c.Request.Context(), sess)
		ctx = logger.WithContext(ctx, logger.UserIDKey, sess.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", sess.UserID)

		c.Next()
	}
}

// bearerToken 读取 Authorization 头，浏览器 WebSocket 无法设置头时退回 access_token 查询参数
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if t := c.Query("access_token"); t != "" && isWebSocket(c) {
			return t, nil
		}
		return "", apperrors.ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.ErrTokenInvalid.WithDetail("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func isWebSocket(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func abortWith(c *gin.Context, err error) {
	dto.Fail(c, err)
	c.Abort()
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}
