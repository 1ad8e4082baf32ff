package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// UserContext 数据库会话中的当前用户，供 RLS 策略读取
type UserContext struct {
	client *Client
}

// NewUserContext 创建当前用户上下文管理器
func NewUserContext(client *Client) *UserContext {
	return &UserContext{client: client}
}

// SetUser 设置当前用户（事务内有效）
func (uc *UserContext) SetUser(ctx context.Context, userID string) error {
	if !uc.client.isPostgres() {
		return nil
	}
	db := getDB(ctx, uc.client.db)
	if err := db.Exec("SELECT set_config('app.current_user_id', ?, TRUE)", userID).Error; err != nil {
		return fmt.Errorf("failed to set user context: %w", err)
	}
	return nil
}

// CurrentUser 获取当前用户 ID
func (uc *UserContext) CurrentUser(ctx context.Context) (string, error) {
	if !uc.client.isPostgres() {
		return "", nil
	}
	db := getDB(ctx, uc.client.db)
	var userID sql.NullString
	if err := db.Raw("SELECT current_setting('app.current_user_id', TRUE)").Scan(&userID).Error; err != nil {
		return "", fmt.Errorf("failed to get user context: %w", err)
	}
	return userID.String, nil
}

// ClearUser 清除当前用户
func (uc *UserContext) ClearUser(ctx context.Context) error {
	if !uc.client.isPostgres() {
		return nil
	}
	db := getDB(ctx, uc.client.db)
	if err := db.Exec("SELECT set_config('app.current_user_id', '', TRUE)").Error; err != nil {
		return fmt.Errorf("failed to clear user context: %w", err)
	}
	return nil
}
