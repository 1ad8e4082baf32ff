// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

// FundingTransactionRepository 资助流水仓储
type FundingTransactionRepository struct {
	client *Client
}

// NewFundingTransactionRepository 创建资助流水仓储
func NewFundingTransactionRepository(client *Client) *FundingTransactionRepository {
	return &FundingTransactionRepository{client: client}
}

// Create 追加资助流水
func (r *FundingTransactionRepository) Create(ctx context.Context, txn *entity.FundingTransaction) error {
	ctx, span := tracer.Start(ctx, "postgres.FundingTransactionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(txn).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create funding transaction: %w", err)
	}
	return nil
}

// ListByProject 按时间倒序分页
func (r *FundingTransactionRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.FundingTransaction], error) {
	ctx, span := tracer.Start(ctx, "postgres.FundingTransactionRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.FundingTransaction{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count funding transactions: %w", err)
	}

	var txns []*entity.FundingTransaction
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&txns).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list funding transactions: %w", err)
	}

	return repository.NewPagedResult(txns, total, pagination), nil
}
