// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

// PanelRepository 分镜仓储
type PanelRepository struct {
	client *Client
}

// NewPanelRepository 创建分镜仓储
func NewPanelRepository(client *Client) *PanelRepository {
	return &PanelRepository{client: client}
}

// Create 创建分镜
func (r *PanelRepository) Create(ctx context.Context, panel *entity.MangaPanel) error {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(panel).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create panel: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取分镜
func (r *PanelRepository) GetByID(ctx context.Context, id string) (*entity.MangaPanel, error) {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var panel entity.MangaPanel
	if err := db.First(&panel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}
	return &panel, nil
}

// Update 更新分镜
func (r *PanelRepository) Update(ctx context.Context, panel *entity.MangaPanel) error {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.Update")
	defer span.End()

	panel.UpdatedAt = time.Now()
	db := getDB(ctx, r.client.db)
	if err := db.Save(panel).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update panel: %w", err)
	}
	return nil
}

// Delete 删除分镜及其抉择记录
func (r *PanelRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := deleteWithChildren(db, entity.MangaPanel{}.TableName(), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete panel: %w", err)
	}
	return nil
}

// ListByProject 按章节、页、格位排序
func (r *PanelRepository) ListByProject(ctx context.Context, projectID string, filter *repository.PanelFilter) ([]*entity.MangaPanel, error) {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.ListByProject")
	defer span.End()

	query := getDB(ctx, r.client.db).Where("project_id = ?", projectID)
	if filter != nil {
		if filter.ChapterNumber != nil {
			query = query.Where("chapter_number = ?", *filter.ChapterNumber)
		}
		if filter.PageNumber != nil {
			query = query.Where("page_number = ?", *filter.PageNumber)
		}
		if filter.KeyframesOnly {
			query = query.Where("is_keyframe = ?", true)
		}
	}

	var panels []*entity.MangaPanel
	if err := query.Order("chapter_number ASC, page_number ASC, panel_position ASC, created_at ASC").Find(&panels).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	return panels, nil
}

// CountOnPage 统计某页已有分镜数
func (r *PanelRepository) CountOnPage(ctx context.Context, projectID string, chapter, page int) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.CountOnPage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.MangaPanel{}).
		Where("project_id = ? AND chapter_number = ? AND page_number = ?", projectID, chapter, page).
		Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count panels: %w", err)
	}
	return count, nil
}

// ToggleKeyframe 在 SQL 中翻转关键帧标记后返回最新行
func (r *PanelRepository) ToggleKeyframe(ctx context.Context, id string) (*entity.MangaPanel, error) {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.ToggleKeyframe")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.MangaPanel{}).Where("id = ?", id).Updates(map[string]any{
		"is_keyframe": gorm.Expr("NOT is_keyframe"),
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		span.RecordError(res.Error)
		return nil, fmt.Errorf("failed to toggle keyframe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var panel entity.MangaPanel
	if err := db.First(&panel, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to reload panel: %w", err)
	}
	return &panel, nil
}

// UpdateImageURL 更新分镜画面地址
func (r *PanelRepository) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	ctx, span := tracer.Start(ctx, "postgres.PanelRepository.UpdateImageURL")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.MangaPanel{}).Where("id = ?", id).Updates(map[string]any{
		"image_url":  imageURL,
		"updated_at": time.Now(),
	}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update panel image: %w", err)
	}
	return nil
}
