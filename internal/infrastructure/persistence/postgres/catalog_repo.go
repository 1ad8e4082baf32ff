// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"anime-forge-api/internal/domain/entity"
)

// StyleRepository 画风库仓储
type StyleRepository struct {
	client *Client
}

// NewStyleRepository 创建画风库仓储
func NewStyleRepository(client *Client) *StyleRepository {
	return &StyleRepository{client: client}
}

func (r *StyleRepository) Create(ctx context.Context, style *entity.Style) error {
	ctx, span := tracer.Start(ctx, "postgres.StyleRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(style).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create style: %w", err)
	}
	return nil
}

func (r *StyleRepository) GetByName(ctx context.Context, name string) (*entity.Style, error) {
	ctx, span := tracer.Start(ctx, "postgres.StyleRepository.GetByName")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var style entity.Style
	if err := db.First(&style, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get style: %w", err)
	}
	return &style, nil
}

// ListActive 按名称排序列出启用的画风
func (r *StyleRepository) ListActive(ctx context.Context) ([]*entity.Style, error) {
	ctx, span := tracer.Start(ctx, "postgres.StyleRepository.ListActive")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var styles []*entity.Style
	if err := db.Where("is_active = ?", true).Order("name ASC").Find(&styles).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	return styles, nil
}

// ProjectRightRepository 项目权益仓储
type ProjectRightRepository struct {
	client *Client
}

// NewProjectRightRepository 创建项目权益仓储
func NewProjectRightRepository(client *Client) *ProjectRightRepository {
	return &ProjectRightRepository{client: client}
}

func (r *ProjectRightRepository) Create(ctx context.Context, right *entity.ProjectRight) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRightRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(right).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project right: %w", err)
	}
	return nil
}

func (r *ProjectRightRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.ProjectRight, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRightRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rights []*entity.ProjectRight
	if err := db.Where("project_id = ?", projectID).Order("acquired_at ASC").Find(&rights).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list project rights: %w", err)
	}
	return rights, nil
}

// SumPercentage 已授予份额合计
func (r *ProjectRightRepository) SumPercentage(ctx context.Context, projectID string) (float64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRightRepository.SumPercentage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var total float64
	if err := db.Model(&entity.ProjectRight{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(SUM(percentage), 0)").
		Scan(&total).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sum project rights: %w", err)
	}
	return total, nil
}
