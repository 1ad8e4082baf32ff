package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// CharacterRepository 角色仓储接口
type CharacterRepository interface {
	Create(ctx context.Context, character *entity.CharacterSeed) error
	GetByID(ctx context.Context, id string) (*entity.CharacterSeed, error)
	Update(ctx context.Context, character *entity.CharacterSeed) error
	Delete(ctx context.Context, id string) error

	// ListByProject 按创建时间正序
	ListByProject(ctx context.Context, projectID string) ([]*entity.CharacterSeed, error)
}
