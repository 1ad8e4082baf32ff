package repository

import "context"

// UserContextManager 数据库会话中的当前用户（用于 PostgreSQL RLS）
type UserContextManager interface {
	// SetUser 设置当前用户
	SetUser(ctx context.Context, userID string) error
	// ClearUser 清除当前用户
	ClearUser(ctx context.Context) error
}
