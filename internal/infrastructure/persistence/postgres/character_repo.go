// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"anime-forge-api/internal/domain/entity"
)

// CharacterRepository 角色仓储
type CharacterRepository struct {
	client *Client
}

// NewCharacterRepository 创建角色仓储
func NewCharacterRepository(client *Client) *CharacterRepository {
	return &CharacterRepository{client: client}
}

// Create 创建角色
func (r *CharacterRepository) Create(ctx context.Context, character *entity.CharacterSeed) error {
	ctx, span := tracer.Start(ctx, "postgres.CharacterRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(character).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取角色
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*entity.CharacterSeed, error) {
	ctx, span := tracer.Start(ctx, "postgres.CharacterRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var character entity.CharacterSeed
	if err := db.First(&character, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return &character, nil
}

// Update 更新角色
func (r *CharacterRepository) Update(ctx context.Context, character *entity.CharacterSeed) error {
	ctx, span := tracer.Start(ctx, "postgres.CharacterRepository.Update")
	defer span.End()

	character.UpdatedAt = time.Now()
	db := getDB(ctx, r.client.db)
	if err := db.Save(character).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update character: %w", err)
	}
	return nil
}

// Delete 删除角色
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.CharacterRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.CharacterSeed{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

// ListByProject 按创建时间正序列出项目角色
func (r *CharacterRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.CharacterSeed, error) {
	ctx, span := tracer.Start(ctx, "postgres.CharacterRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var characters []*entity.CharacterSeed
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC, id ASC").Find(&characters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}
