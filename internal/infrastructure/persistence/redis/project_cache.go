package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/pkg/logger"
)

// CachedProjectRepository 在项目仓储前加行缓存，写成功后使缓存失效
type CachedProjectRepository struct {
	repository.ProjectRepository
	cache *Cache
	ttl   time.Duration
}

// NewCachedProjectRepository 创建带缓存的项目仓储
func NewCachedProjectRepository(inner repository.ProjectRepository, cache *Cache, ttl time.Duration) *CachedProjectRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedProjectRepository{ProjectRepository: inner, cache: cache, ttl: ttl}
}

// GetByID 事务外读缓存，事务内直接回源
func (r *CachedProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	if ctx.Value(repository.TxKey{}) != nil {
		return r.ProjectRepository.GetByID(ctx, id)
	}

	raw, err := r.cache.ReadThrough(ctx, "project", ProjectKey(id), r.ttl, func() (any, error) {
		p, err := r.ProjectRepository.GetByID(ctx, id)
		if err != nil || p == nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var project entity.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, fmt.Errorf("failed to decode cached project: %w", err)
	}
	if project.StoryBible == nil {
		project.StoryBible = &entity.StoryBible{}
	}
	return &project, nil
}

func (r *CachedProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	if err := r.ProjectRepository.Update(ctx, project); err != nil {
		return err
	}
	r.invalidate(ctx, project.ID)
	return nil
}

func (r *CachedProjectRepository) Delete(ctx context.Context, id string) error {
	if err := r.ProjectRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedProjectRepository) UpdateStoryBible(ctx context.Context, id string, bible *entity.StoryBible) error {
	if err := r.ProjectRepository.UpdateStoryBible(ctx, id, bible); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedProjectRepository) ApplyFunding(ctx context.Context, u repository.FundingUpdate) (bool, error) {
	ok, err := r.ProjectRepository.ApplyFunding(ctx, u)
	if err != nil {
		return false, err
	}
	if ok {
		r.invalidate(ctx, u.ProjectID)
	}
	return ok, nil
}

// invalidate 事务内延后到提交成功后删除，避免并发读把旧行写回缓存
func (r *CachedProjectRepository) invalidate(ctx context.Context, id string) {
	repository.AfterCommit(ctx, func(ctx context.Context) {
		if err := r.cache.Invalidate(ctx, ProjectKey(id)); err != nil {
			logger.Warn(ctx, "failed to invalidate project cache", "project_id", id, "error", err.Error())
		}
	})
}
