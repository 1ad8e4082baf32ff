package repository

import (
	"context"
	"time"

	"anime-forge-api/internal/domain/entity"
)

type StorySessionRepository interface {
	Create(ctx context.Context, session *entity.StorySession) error
	GetByID(ctx context.Context, id string) (*entity.StorySession, error)
	Touch(ctx context.Context, id string) error
	// ListByProject userID 为空时返回项目下全部会话
	ListByProject(ctx context.Context, projectID, userID string, pagination Pagination) (*PagedResult[*entity.StorySession], error)
}

type StoryTurnRepository interface {
	Create(ctx context.Context, turn *entity.StoryTurn) error
	ListBySession(ctx context.Context, sessionID string, pagination Pagination) (*PagedResult[*entity.StoryTurn], error)
	// ListRecent 最近 n 轮，按时间正序返回
	ListRecent(ctx context.Context, sessionID string, n int) ([]*entity.StoryTurn, error)
}

// LLMUsageEventRepository 模型用量流水
type LLMUsageEventRepository interface {
	Create(ctx context.Context, evt *entity.LLMUsageEvent) error
	// SumTokensByWorkflow 时间窗口 [start, end) 内按工作流汇总的 token 数
	SumTokensByWorkflow(ctx context.Context, userID string, start, end time.Time) (map[string]int64, error)
}
