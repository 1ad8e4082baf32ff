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

type StorySessionRepository struct {
	client *Client
}

func NewStorySessionRepository(client *Client) *StorySessionRepository {
	return &StorySessionRepository{client: client}
}

func (r *StorySessionRepository) Create(ctx context.Context, session *entity.StorySession) error {
	ctx, span := tracer.Start(ctx, "postgres.StorySessionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create story session: %w", err)
	}
	return nil
}

func (r *StorySessionRepository) GetByID(ctx context.Context, id string) (*entity.StorySession, error) {
	ctx, span := tracer.Start(ctx, "postgres.StorySessionRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var session entity.StorySession
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get story session: %w", err)
	}
	return &session, nil
}

func (r *StorySessionRepository) Touch(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.StorySessionRepository.Touch")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.StorySession{}).Where("id = ?", id).Update("updated_at", time.Now()).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to touch story session: %w", err)
	}
	return nil
}

func (r *StorySessionRepository) ListByProject(ctx context.Context, projectID, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.StorySession], error) {
	ctx, span := tracer.Start(ctx, "postgres.StorySessionRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.StorySession{}).Where("project_id = ?", projectID)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count story sessions: %w", err)
	}

	var sessions []*entity.StorySession
	if err := query.Order("updated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&sessions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list story sessions: %w", err)
	}

	return repository.NewPagedResult(sessions, total, pagination), nil
}

type StoryTurnRepository struct {
	client *Client
}

func NewStoryTurnRepository(client *Client) *StoryTurnRepository {
	return &StoryTurnRepository{client: client}
}

func (r *StoryTurnRepository) Create(ctx context.Context, turn *entity.StoryTurn) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryTurnRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(turn).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create story turn: %w", err)
	}
	return nil
}

func (r *StoryTurnRepository) ListBySession(ctx context.Context, sessionID string, pagination repository.Pagination) (*repository.PagedResult[*entity.StoryTurn], error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryTurnRepository.ListBySession")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.StoryTurn{}).Where("session_id = ?", sessionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count story turns: %w", err)
	}

	var turns []*entity.StoryTurn
	if err := query.Order("created_at ASC, id ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&turns).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list story turns: %w", err)
	}

	return repository.NewPagedResult(turns, total, pagination), nil
}

// ListRecent 取最近 n 轮并按时间正序返回
func (r *StoryTurnRepository) ListRecent(ctx context.Context, sessionID string, n int) ([]*entity.StoryTurn, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryTurnRepository.ListRecent")
	defer span.End()

	if n <= 0 {
		return nil, nil
	}
	db := getDB(ctx, r.client.db)
	var turns []*entity.StoryTurn
	if err := db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&turns).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list recent story turns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
