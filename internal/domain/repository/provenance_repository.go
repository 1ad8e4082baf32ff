package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// ProvenanceFilter 溯源查询条件
type ProvenanceFilter struct {
	EntityType string
	Limit      int
}

// Normalize 补齐默认值，Limit 不超过 entity.ProvenanceLimit
func (f ProvenanceFilter) Normalize() ProvenanceFilter {
	if f.Limit <= 0 || f.Limit > entity.ProvenanceLimit {
		f.Limit = entity.ProvenanceLimit
	}
	return f
}

// ProvenanceRepository 溯源日志仓储接口，只追加不修改
type ProvenanceRepository interface {
	// Create 追加一条日志
	Create(ctx context.Context, log *entity.ProvenanceLog) error

	// ListByProject 按 created_at 倒序
	ListByProject(ctx context.Context, projectID string, filter ProvenanceFilter) ([]*entity.ProvenanceLog, error)
}
