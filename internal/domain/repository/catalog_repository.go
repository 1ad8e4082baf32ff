package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// StyleRepository 画风库仓储接口
type StyleRepository interface {
	Create(ctx context.Context, style *entity.Style) error
	GetByName(ctx context.Context, name string) (*entity.Style, error)
	ListActive(ctx context.Context) ([]*entity.Style, error)
}

// ProjectRightRepository 项目权益仓储接口
type ProjectRightRepository interface {
	Create(ctx context.Context, right *entity.ProjectRight) error
	ListByProject(ctx context.Context, projectID string) ([]*entity.ProjectRight, error)
	SumPercentage(ctx context.Context, projectID string) (float64, error)
}
