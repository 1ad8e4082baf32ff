package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// DirectorChoiceRepository 导演选择仓储接口
type DirectorChoiceRepository interface {
	Create(ctx context.Context, choice *entity.DirectorChoice) error
	ListByPanel(ctx context.Context, panelID string, pagination Pagination) (*PagedResult[*entity.DirectorChoice], error)
}
