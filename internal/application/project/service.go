// Package project 项目的仪表盘、Launchpad 与 Studio 视图
package project

import (
	"context"
	"math"
	"strings"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
	apperrors "anime-forge-api/pkg/errors"
)

// CreateInput 创建项目参数
type CreateInput struct {
	Name        string
	Description string
	Genre       string
	FundingGoal *float64
}

// UpdateInput 更新项目参数，nil 字段不修改
type UpdateInput struct {
	Name          *string
	Description   *string
	Genre         *string
	Status        *entity.ProjectStatus
	FundingTier   *entity.FundingTier
	FundingGoal   *float64
	CoverImageURL *string
}

// Studio Studio 页面加载的数据
type Studio struct {
	Project    *entity.Project         `json:"project"`
	Characters []*entity.CharacterSeed `json:"characters"`
	Panels     []*entity.MangaPanel    `json:"panels"`
}

// Service 项目服务
type Service struct {
	projects   repository.ProjectRepository
	characters repository.CharacterRepository
	panels     repository.PanelRepository
	txm        repository.Transactor
	guard      *access.Guard
	recorder   *provenance.Recorder
}

func NewService(
	projects repository.ProjectRepository,
	characters repository.CharacterRepository,
	panels repository.PanelRepository,
	txm repository.Transactor,
	guard *access.Guard,
	recorder *provenance.Recorder,
) *Service {
	return &Service{
		projects:   projects,
		characters: characters,
		panels:     panels,
		txm:        txm,
		guard:      guard,
		recorder:   recorder,
	}
}

func validGoal(goal float64) bool {
	return goal >= 0 && !math.IsNaN(goal) && !math.IsInf(goal, 0)
}

// Create 以默认值创建项目，创建者为会话用户
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Project, error) {
	sess, err := s.guard.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("name is required")
	}

	p := entity.NewProject(sess.UserID, name)
	if d := strings.TrimSpace(in.Description); d != "" {
		p.Description = d
	}
	p.Genre = strings.TrimSpace(in.Genre)
	if in.FundingGoal != nil {
		if !validGoal(*in.FundingGoal) {
			return nil, apperrors.ErrInvalidParam.WithDetail("funding_goal must be a non-negative number")
		}
		p.FundingGoal = *in.FundingGoal
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.projects.Create(txCtx, p); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.Project{}.TableName(),
			EntityID:   p.ID,
			Action:     entity.ProvenanceInsert,
			Details:    map[string]any{"name": p.Name},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return p, nil
}

// ListMine 当前用户的项目，按 updated_at 倒序
func (s *Service) ListMine(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	sess, err := s.guard.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.projects.ListByOwner(ctx, sess.UserID, pagination)
}

// Launchpad pilot/funding/funded 项目，按 funding_current 倒序
func (s *Service) Launchpad(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return s.projects.ListByStatuses(ctx, entity.LaunchpadStatuses, pagination)
}

// Get 获取项目
func (s *Service) Get(ctx context.Context, id string) (*entity.Project, error) {
	return s.guard.Project(ctx, id)
}

// Update 更新可编辑字段
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.Project, error) {
	p, err := s.guard.OwnedProject(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.ErrInvalidParam.WithDetail("name cannot be empty")
		}
		p.Name = name
		changed["name"] = name
	}
	if in.Description != nil {
		p.Description = *in.Description
		changed["description"] = p.Description
	}
	if in.Genre != nil {
		p.Genre = strings.TrimSpace(*in.Genre)
		changed["genre"] = p.Genre
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperrors.ErrInvalidParam.WithDetail("invalid status")
		}
		p.Status = *in.Status
		changed["status"] = p.Status
	}
	if in.FundingTier != nil {
		if !in.FundingTier.Valid() {
			return nil, apperrors.ErrInvalidParam.WithDetail("invalid funding_tier")
		}
		p.FundingTier = *in.FundingTier
		changed["funding_tier"] = p.FundingTier
	}
	if in.FundingGoal != nil {
		if !validGoal(*in.FundingGoal) {
			return nil, apperrors.ErrInvalidParam.WithDetail("funding_goal must be a non-negative number")
		}
		p.FundingGoal = *in.FundingGoal
		p.FundingPercentage = entity.FundingPercentageFor(p.FundingCurrent, p.FundingGoal)
		changed["funding_goal"] = p.FundingGoal
	}
	if in.CoverImageURL != nil {
		p.CoverImageURL = strings.TrimSpace(*in.CoverImageURL)
		changed["cover_image_url"] = p.CoverImageURL
	}
	if len(changed) == 0 {
		return p, nil
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.projects.Update(txCtx, p); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.Project{}.TableName(),
			EntityID:   p.ID,
			Action:     entity.ProvenanceUpdate,
			Details:    changed,
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return p, nil
}

// Delete 删除项目
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.guard.OwnedProject(ctx, id)
	if err != nil {
		return err
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.projects.Delete(txCtx, p.ID); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.Project{}.TableName(),
			EntityID:   p.ID,
			Action:     entity.ProvenanceDelete,
			Details:    map[string]any{"name": p.Name},
		})
	})
	if err != nil {
		return err
	}
	batch.Commit(ctx)
	return nil
}

// Studio 项目及其角色、分镜
func (s *Service) Studio(ctx context.Context, id string) (*Studio, error) {
	p, err := s.guard.Project(ctx, id)
	if err != nil {
		return nil, err
	}
	characters, err := s.characters.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	panels, err := s.panels.ListByProject(ctx, p.ID, nil)
	if err != nil {
		return nil, err
	}
	return &Studio{Project: p, Characters: characters, Panels: panels}, nil
}

// CanEdit 会话用户是否可编辑项目
func (s *Service) CanEdit(ctx context.Context, p *entity.Project) bool {
	if session.UserID(ctx) == "" {
		return false
	}
	return s.guard.CanWrite(ctx, p) == nil
}
