package postgres

import (
	"context"
	"fmt"
	"time"

	"anime-forge-api/internal/domain/entity"
)

// LLMUsageEventRepository 模型用量流水，只追加
type LLMUsageEventRepository struct {
	client *Client
}

func NewLLMUsageEventRepository(client *Client) *LLMUsageEventRepository {
	return &LLMUsageEventRepository{client: client}
}

func (r *LLMUsageEventRepository) Create(ctx context.Context, evt *entity.LLMUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(evt).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record llm usage: %w", err)
	}
	return nil
}

type workflowTokens struct {
	Workflow string
	Tokens   int64
}

// SumTokensByWorkflow 用户在 [start, end) 内各工作流的 prompt+completion token 数
func (r *LLMUsageEventRepository) SumTokensByWorkflow(ctx context.Context, userID string, start, end time.Time) (map[string]int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.SumTokensByWorkflow")
	defer span.End()

	var rows []workflowTokens
	err := getDB(ctx, r.client.db).
		Model(&entity.LLMUsageEvent{}).
		Select("workflow, COALESCE(SUM(tokens_prompt + tokens_completion), 0) AS tokens").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Group("workflow").
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to sum llm usage: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Workflow] = row.Tokens
	}
	return out, nil
}
