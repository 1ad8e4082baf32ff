// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

// ProvenanceRepository 溯源日志仓储，只提供追加与查询
type ProvenanceRepository struct {
	client *Client
}

// NewProvenanceRepository 创建溯源日志仓储
func NewProvenanceRepository(client *Client) *ProvenanceRepository {
	return &ProvenanceRepository{client: client}
}

// Create 追加一条日志，相同 ID 重复投递时忽略
func (r *ProvenanceRepository) Create(ctx context.Context, log *entity.ProvenanceLog) error {
	ctx, span := tracer.Start(ctx, "postgres.ProvenanceRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(log).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create provenance log: %w", err)
	}
	return nil
}

// ListByProject 按 created_at 倒序
func (r *ProvenanceRepository) ListByProject(ctx context.Context, projectID string, filter repository.ProvenanceFilter) ([]*entity.ProvenanceLog, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProvenanceRepository.ListByProject")
	defer span.End()

	filter = filter.Normalize()
	query := getDB(ctx, r.client.db).Where("project_id = ?", projectID)
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}

	logs := make([]*entity.ProvenanceLog, 0)
	if err := query.Order("created_at DESC, id DESC").Limit(filter.Limit).Find(&logs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list provenance logs: %w", err)
	}
	return logs, nil
}
