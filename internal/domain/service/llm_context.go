package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
	llmCtxKeyUser     llmCtxKey = "llm_user"
)

// 工作流名称，用于 LLM 指标与用量流水
const (
	WorkflowPanelVariations = "panel_variations"
	WorkflowStoryBible      = "story_bible_generate"
	WorkflowStyleDNA        = "style_dna_generate"
	WorkflowStoryDrafter    = "story_drafter"
)

func withValue(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func valueOr(ctx context.Context, key llmCtxKey, fallback string) string {
	if ctx == nil {
		return fallback
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}

// WithLLMCall 标记一次模型调用所属的工作流、提供方与发起用户
func WithLLMCall(ctx context.Context, workflow, provider, userID string) context.Context {
	ctx = withValue(ctx, llmCtxKeyWorkflow, workflow)
	ctx = withValue(ctx, llmCtxKeyProvider, provider)
	return withValue(ctx, llmCtxKeyUser, userID)
}

func WorkflowFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyWorkflow, "unknown")
}

func ProviderFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyProvider, "unknown")
}

func LLMUserFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyUser, "")
}
