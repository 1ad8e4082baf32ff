// Package catalog 画风库与项目权益
package catalog

import (
	"context"
	"math"
	"strings"

	"gorm.io/datatypes"

	"anime-forge-api/internal/application/access"
	"anime-forge-api/internal/application/provenance"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	apperrors "anime-forge-api/pkg/errors"
)

// StyleInput 新建画风
type StyleInput struct {
	Name        string
	Description string
	Tags        []string
	PreviewURL  string
	IsActive    *bool
}

// RightInput 授予权益
type RightInput struct {
	HolderID    string
	RightsType  string
	Percentage  float64
	IsTradeable bool
	PricePaid   *float64
	Metadata    map[string]any
}

// Service 目录服务
type Service struct {
	styles   repository.StyleRepository
	rights   repository.ProjectRightRepository
	projects repository.ProjectRepository
	txm      repository.Transactor
	guard    *access.Guard
	recorder *provenance.Recorder
}

func NewService(
	styles repository.StyleRepository,
	rights repository.ProjectRightRepository,
	projects repository.ProjectRepository,
	txm repository.Transactor,
	guard *access.Guard,
	recorder *provenance.Recorder,
) *Service {
	return &Service{
		styles:   styles,
		rights:   rights,
		projects: projects,
		txm:      txm,
		guard:    guard,
		recorder: recorder,
	}
}

// ListStyles 启用的画风，按名称排序
func (s *Service) ListStyles(ctx context.Context) ([]*entity.Style, error) {
	return s.styles.ListActive(ctx)
}

// CreateStyle 仅管理员
func (s *Service) CreateStyle(ctx context.Context, in StyleInput) (*entity.Style, error) {
	if err := s.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("name is required")
	}
	existing, err := s.styles.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrConflict.WithDetail("style already exists")
	}

	style := &entity.Style{
		Name:        name,
		Description: in.Description,
		Tags:        entity.StringList(in.Tags),
		PreviewURL:  strings.TrimSpace(in.PreviewURL),
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if style.Tags == nil {
		style.Tags = entity.StringList{}
	}
	if err := s.styles.Create(ctx, style); err != nil {
		return nil, err
	}
	return style, nil
}

// ListRights 项目权益持有者
func (s *Service) ListRights(ctx context.Context, projectID string) ([]*entity.ProjectRight, error) {
	p, err := s.guard.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.rights.ListByProject(ctx, p.ID)
}

// GrantRight 授予权益，项目总份额不超过 100
func (s *Service) GrantRight(ctx context.Context, projectID string, in RightInput) (*entity.ProjectRight, error) {
	if strings.TrimSpace(in.HolderID) == "" || strings.TrimSpace(in.RightsType) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("holder_id and rights_type are required")
	}
	if !(in.Percentage > 0) || in.Percentage > 100 || math.IsInf(in.Percentage, 0) {
		return nil, apperrors.ErrInvalidParam.WithDetail("percentage must be in (0, 100]")
	}
	p, err := s.guard.OwnedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	right := &entity.ProjectRight{
		ProjectID:   p.ID,
		HolderID:    strings.TrimSpace(in.HolderID),
		RightsType:  strings.TrimSpace(in.RightsType),
		Percentage:  in.Percentage,
		IsTradeable: in.IsTradeable,
		PricePaid:   in.PricePaid,
		Metadata:    datatypes.JSONMap(in.Metadata),
	}
	if right.Metadata == nil {
		right.Metadata = datatypes.JSONMap{}
	}

	batch := s.recorder.Begin()
	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		// 锁住项目行，串行化同一项目的授予
		if _, err := s.projects.GetByIDForUpdate(txCtx, p.ID); err != nil {
			return err
		}
		total, err := s.rights.SumPercentage(txCtx, p.ID)
		if err != nil {
			return err
		}
		if total+in.Percentage > 100+1e-9 {
			return apperrors.ErrRightsExceeded
		}
		if err := s.rights.Create(txCtx, right); err != nil {
			return err
		}
		return batch.Add(txCtx, provenance.Event{
			ProjectID:  p.ID,
			EntityType: entity.ProjectRight{}.TableName(),
			EntityID:   right.ID,
			Action:     entity.ProvenanceInsert,
			Details: map[string]any{
				"holder_id":   right.HolderID,
				"rights_type": right.RightsType,
				"percentage":  right.Percentage,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Commit(ctx)
	return right, nil
}
