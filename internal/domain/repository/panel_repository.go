package repository

import (
	"context"

	"anime-forge-api/internal/domain/entity"
)

// PanelFilter 分镜过滤条件
type PanelFilter struct {
	ChapterNumber *int
	PageNumber    *int
	KeyframesOnly bool
}

// PanelRepository 分镜仓储接口
type PanelRepository interface {
	// Create 创建分镜
	Create(ctx context.Context, panel *entity.MangaPanel) error

	// GetByID 根据 ID 获取分镜
	GetByID(ctx context.Context, id string) (*entity.MangaPanel, error)

	// Update 更新分镜
	Update(ctx context.Context, panel *entity.MangaPanel) error

	// Delete 删除分镜
	Delete(ctx context.Context, id string) error

	// ListByProject 按 (chapter, page, position) 排序
	ListByProject(ctx context.Context, projectID string, filter *PanelFilter) ([]*entity.MangaPanel, error)

	// CountOnPage 统计某页已有分镜数
	CountOnPage(ctx context.Context, projectID string, chapter, page int) (int64, error)

	// ToggleKeyframe 原子翻转关键帧标记
	ToggleKeyframe(ctx context.Context, id string) (*entity.MangaPanel, error)

	// UpdateImageURL 更新分镜画面地址
	UpdateImageURL(ctx context.Context, id, imageURL string) error
}
