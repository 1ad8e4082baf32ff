package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// ProfileRepository 用户资料仓储接口
type ProfileRepository interface {
	// Create 创建用户
	Create(ctx context.Context, profile *entity.Profile) error

	// GetByID 根据 ID 获取用户
	GetByID(ctx context.Context, id string) (*entity.Profile, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*entity.Profile, error)

	// Update 更新资料
	Update(ctx context.Context, profile *entity.Profile) error

	// UpdateLastLogin 更新最后登录时间
	UpdateLastLogin(ctx context.Context, id string) error

	// ExistsByEmail 检查邮箱是否存在
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// UserRoleRepository 用户角色仓储接口
type UserRoleRepository interface {
	// Grant 授予角色，已存在时不报错
	Grant(ctx context.Context, userID string, role entity.AppRole) error

	// ListRoles 获取用户角色
	ListRoles(ctx context.Context, userID string) ([]entity.AppRole, error)

	// HasRole 对应 has_role(_role, _user_id)
	HasRole(ctx context.Context, role entity.AppRole, userID string) (bool, error)
}
