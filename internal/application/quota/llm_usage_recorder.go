package quota

import (
	"context"
	"fmt"
	"strings"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/service"
)

// LLMUsageRecorder 将模型用量写入 llm_usage_events
type LLMUsageRecorder struct {
	usageRepo repository.LLMUsageEventRepository
}

func NewLLMUsageRecorder(usageRepo repository.LLMUsageEventRepository) *LLMUsageRecorder {
	return &LLMUsageRecorder{usageRepo: usageRepo}
}

func (r *LLMUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	if r == nil || r.usageRepo == nil {
		return nil
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return fmt.Errorf("invalid token usage")
	}

	evt := &entity.LLMUsageEvent{
		UserID:           userID,
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		Workflow:         strings.TrimSpace(in.Workflow),
		TokensPrompt:     in.PromptTokens,
		TokensCompletion: in.CompletionTokens,
		DurationMs:       in.DurationMs,
	}
	return r.usageRepo.Create(ctx, evt)
}
