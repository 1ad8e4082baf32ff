// Package session 提供显式传递的认证会话上下文
package session

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

type ctxKey struct{}

// Session 当前请求的认证身份
type Session struct {
	UserID string
	Roles  []entity.AppRole
}

// New 创建会话
func New(userID string, roles []string) *Session {
	s := &Session{UserID: userID}
	for _, r := range roles {
		role := entity.AppRole(r)
		if role.Valid() {
			s.Roles = append(s.Roles, role)
		}
	}
	return s
}

// HasRole 会话是否持有角色
func (s *Session) HasRole(role entity.AppRole) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin 是否为管理员
func (s *Session) IsAdmin() bool {
	return s.HasRole(entity.AppRoleAdmin)
}

// WithSession 将会话写入上下文
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext 从上下文读取会话
func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// UserID 返回会话用户 ID，未认证时为空
func UserID(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.UserID
	}
	return ""
}
