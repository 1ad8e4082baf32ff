package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// FundingUpdate 一次资助对项目行的条件更新
type FundingUpdate struct {
	ProjectID         string
	ExpectedPrice     float64
	Amount            float64
	NewPrice          float64
	FundingPercentage float64
	Status            entity.ProjectStatus
}

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// GetByIDForUpdate 在事务中加行锁读取项目
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Project, error)

	// Update 更新项目
	Update(ctx context.Context, project *entity.Project) error

	// Delete 删除项目
	Delete(ctx context.Context, id string) error

	// ListByOwner 获取用户项目列表，按 updated_at 倒序
	ListByOwner(ctx context.Context, ownerID string, pagination Pagination) (*PagedResult[*entity.Project], error)

	// ListByStatuses 按状态筛选，按 funding_current 倒序
	ListByStatuses(ctx context.Context, statuses []entity.ProjectStatus, pagination Pagination) (*PagedResult[*entity.Project], error)

	// UpdateStoryBible 保存故事设定集
	UpdateStoryBible(ctx context.Context, id string, bible *entity.StoryBible) error

	// ApplyFunding 价格未变化时累加资助并推高价格，返回是否命中
	ApplyFunding(ctx context.Context, update FundingUpdate) (bool, error)
}
