package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// FundingTransactionRepository 资助流水仓储接口
type FundingTransactionRepository interface {
	Create(ctx context.Context, txn *entity.FundingTransaction) error
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.FundingTransaction], error)
}
