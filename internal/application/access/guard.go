// Package access 项目级授权检查
package access

import (
	"context"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
	apperrors "anime-forge-api/pkg/errors"
)

// Guard 对应存储侧 has_role / is_project_owner 的应用层检查
type Guard struct {
	projects repository.ProjectRepository
	roles    repository.UserRoleRepository
}

func NewGuard(projects repository.ProjectRepository, roles repository.UserRoleRepository) *Guard {
	return &Guard{projects: projects, roles: roles}
}

// RequireSession 要求已认证
func (g *Guard) RequireSession(ctx context.Context) (*session.Session, error) {
	s, ok := session.FromContext(ctx)
	if !ok || s.UserID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return s, nil
}

// IsAdmin 会话声明或 user_roles 中存在 admin
func (g *Guard) IsAdmin(ctx context.Context) (bool, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return false, nil
	}
	if s.IsAdmin() {
		return true, nil
	}
	if g.roles == nil {
		return false, nil
	}
	return g.roles.HasRole(ctx, entity.AppRoleAdmin, s.UserID)
}

// Project 读取项目，不存在返回 ErrProjectNotFound
func (g *Guard) Project(ctx context.Context, projectID string) (*entity.Project, error) {
	if _, err := g.RequireSession(ctx); err != nil {
		return nil, err
	}
	project, err := g.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}
	return project, nil
}

// OwnedProject 读取项目并要求 is_project_owner 或 admin
func (g *Guard) OwnedProject(ctx context.Context, projectID string) (*entity.Project, error) {
	project, err := g.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := g.CanWrite(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// CanWrite 项目写权限检查
func (g *Guard) CanWrite(ctx context.Context, project *entity.Project) error {
	if project.IsOwnedBy(session.UserID(ctx)) {
		return nil
	}
	admin, err := g.IsAdmin(ctx)
	if err != nil {
		return err
	}
	if !admin {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// RequireAdmin 要求 admin 角色
func (g *Guard) RequireAdmin(ctx context.Context) error {
	if _, err := g.RequireSession(ctx); err != nil {
		return err
	}
	admin, err := g.IsAdmin(ctx)
	if err != nil {
		return err
	}
	if !admin {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
