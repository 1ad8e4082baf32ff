// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"anime-forge-api/internal/domain/entity"
)

// ProfileRepository 用户资料仓储
type ProfileRepository struct {
	client *Client
}

// NewProfileRepository 创建用户资料仓储
func NewProfileRepository(client *Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// Create 创建用户
func (r *ProfileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(profile).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取用户
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var profile entity.Profile
	if err := db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// GetByEmail 根据邮箱获取用户
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.GetByEmail")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var profile entity.Profile
	if err := db.First(&profile, "email = ?", entity.NormalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return &profile, nil
}

// Update 更新资料
func (r *ProfileRepository) Update(ctx context.Context, profile *entity.Profile) error {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(profile).Select("display_name", "avatar_url", "bio", "updated_at").Updates(profile).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdateLastLogin 更新最后登录时间
func (r *ProfileRepository) UpdateLastLogin(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.UpdateLastLogin")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Profile{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ExistsByEmail 检查邮箱是否存在
func (r *ProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.ExistsByEmail")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Profile{}).Where("email = ?", entity.NormalizeEmail(email)).Count(&count).Error; err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// UserRoleRepository 用户角色仓储
type UserRoleRepository struct {
	client *Client
}

// NewUserRoleRepository 创建用户角色仓储
func NewUserRoleRepository(client *Client) *UserRoleRepository {
	return &UserRoleRepository{client: client}
}

// Grant 授予角色，已存在时忽略
func (r *UserRoleRepository) Grant(ctx context.Context, userID string, role entity.AppRole) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRoleRepository.Grant")
	defer span.End()

	db := getDB(ctx, r.client.db)
	row := &entity.UserRole{UserID: userID, Role: role}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// ListRoles 获取用户角色
func (r *UserRoleRepository) ListRoles(ctx context.Context, userID string) ([]entity.AppRole, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRoleRepository.ListRoles")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var roles []entity.AppRole
	if err := db.Model(&entity.UserRole{}).Where("user_id = ?", userID).Order("role ASC").Pluck("role", &roles).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// HasRole 用户是否持有角色
func (r *UserRoleRepository) HasRole(ctx context.Context, role entity.AppRole, userID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRoleRepository.HasRole")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.UserRole{}).Where("user_id = ? AND role = ?", userID, role).Count(&count).Error; err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return count > 0, nil
}
