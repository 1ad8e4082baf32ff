// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

type DirectorChoiceRepository struct {
	client *Client
}

func NewDirectorChoiceRepository(client *Client) *DirectorChoiceRepository {
	return &DirectorChoiceRepository{client: client}
}

func (r *DirectorChoiceRepository) Create(ctx context.Context, choice *entity.DirectorChoice) error {
	ctx, span := tracer.Start(ctx, "postgres.DirectorChoiceRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(choice).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create director choice: %w", err)
	}
	return nil
}

func (r *DirectorChoiceRepository) ListByPanel(ctx context.Context, panelID string, pagination repository.Pagination) (*repository.PagedResult[*entity.DirectorChoice], error) {
	ctx, span := tracer.Start(ctx, "postgres.DirectorChoiceRepository.ListByPanel")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.DirectorChoice{}).Where("panel_id = ?", panelID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count director choices: %w", err)
	}

	var choices []*entity.DirectorChoice
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&choices).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list director choices: %w", err)
	}

	return repository.NewPagedResult(choices, total, pagination), nil
}
