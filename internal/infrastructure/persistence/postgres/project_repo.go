// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
)

// ProjectRepository 项目仓储
type ProjectRepository struct {
	client *Client
}

// NewProjectRepository 创建项目仓储
func NewProjectRepository(client *Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	if project.StoryBible == nil {
		project.StoryBible = &entity.StoryBible{}
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取项目
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByID")
	defer span.End()

	return r.get(getDB(ctx, r.client.db), id, span)
}

// GetByIDForUpdate 在事务中加行锁读取项目
func (r *ProjectRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByIDForUpdate")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if r.client.isPostgres() {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(db, id, span)
}

func (r *ProjectRepository) get(db *gorm.DB, id string, span trace.Span) (*entity.Project, error) {
	var project entity.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if project.StoryBible == nil {
		project.StoryBible = &entity.StoryBible{}
	}
	return &project, nil
}

// Update 更新项目可编辑字段
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Update")
	defer span.End()

	project.UpdatedAt = time.Now()
	db := getDB(ctx, r.client.db)
	if err := db.Model(project).
		Select("name", "description", "genre", "status", "funding_tier", "funding_goal",
			"funding_percentage", "cover_image_url", "updated_at").
		Updates(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete 删除项目及其角色、分镜、抉择、资助流水、版权与故事会话；溯源日志保留
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := deleteWithChildren(db, entity.Project{}.TableName(), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// ListByOwner 获取用户项目列表
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.ListByOwner")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&entity.Project{}).Where("created_by = ?", ownerID)
	result, err := r.page(query, "updated_at DESC", pagination)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// ListByStatuses 按状态筛选，资助金额高者在前
func (r *ProjectRepository) ListByStatuses(ctx context.Context, statuses []entity.ProjectStatus, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.ListByStatuses")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&entity.Project{}).Where("status IN ?", statuses)
	result, err := r.page(query, "funding_current DESC", pagination)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

func (r *ProjectRepository) page(query *gorm.DB, order string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var projects []*entity.Project
	if err := query.Order(order).
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return repository.NewPagedResult(projects, total, pagination), nil
}

// UpdateStoryBible 保存故事设定集
func (r *ProjectRepository) UpdateStoryBible(ctx context.Context, id string, bible *entity.StoryBible) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateStoryBible")
	defer span.End()

	if bible == nil {
		bible = &entity.StoryBible{}
	}
	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Project{ID: id}).
		Select("story_bible", "updated_at").
		Updates(&entity.Project{StoryBible: bible, UpdatedAt: time.Now()}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update story bible: %w", err)
	}
	return nil
}

// ApplyFunding 价格仍为 ExpectedPrice 时累加资助额并写入新价格
func (r *ProjectRepository) ApplyFunding(ctx context.Context, u repository.FundingUpdate) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.ApplyFunding")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.Project{}).
		Where("id = ? AND bonding_curve_price = ?", u.ProjectID, u.ExpectedPrice).
		Updates(map[string]any{
			"funding_current":     gorm.Expr("funding_current + ?", u.Amount),
			"bonding_curve_price": u.NewPrice,
			"funding_percentage":  u.FundingPercentage,
			"status":              u.Status,
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, fmt.Errorf("failed to apply funding: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
