// Package quota 提供用户 LLM 用量与配额能力
package quota

import (
	"context"
	"fmt"
	"time"

	"anime-forge-api/internal/domain/repository"
	apperrors "anime-forge-api/pkg/errors"
)

// TokenQuotaExceededError 表示用户 Token 日配额已耗尽
type TokenQuotaExceededError struct {
	UserID string
	Max    int64
	Used   int64
}

func (e TokenQuotaExceededError) Error() string {
	return fmt.Sprintf("token quota exceeded: user=%s used=%d max=%d", e.UserID, e.Used, e.Max)
}

// DailyUsage 当日用量，ByWorkflow 区分分镜变体、设定集、Style DNA 与草稿对话
type DailyUsage struct {
	Used       int64            `json:"used"`
	Max        int64            `json:"max"`
	Remaining  *int64           `json:"remaining,omitempty"`
	ByWorkflow map[string]int64 `json:"by_workflow"`
	ResetAt    time.Time        `json:"reset_at"`
}

// TokenQuotaChecker 检查用户 Token 日配额
type TokenQuotaChecker struct {
	llmRepo repository.LLMUsageEventRepository
	max     int64
	now     func() time.Time
}

func NewTokenQuotaChecker(llmRepo repository.LLMUsageEventRepository, maxTokensPerDay int64) *TokenQuotaChecker {
	return &TokenQuotaChecker{
		llmRepo: llmRepo,
		max:     maxTokensPerDay,
		now:     time.Now,
	}
}

// Usage 返回用户当日（UTC）用量
func (c *TokenQuotaChecker) Usage(ctx context.Context, userID string) (*DailyUsage, error) {
	now := c.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	byWorkflow, err := c.llmRepo.SumTokensByWorkflow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if byWorkflow == nil {
		byWorkflow = map[string]int64{}
	}
	usage := &DailyUsage{Max: c.max, ByWorkflow: byWorkflow, ResetAt: end}
	for _, n := range byWorkflow {
		usage.Used += n
	}
	if c.max > 0 {
		remaining := max(c.max-usage.Used, 0)
		usage.Remaining = &remaining
	}
	return usage, nil
}

// CheckDailyTokens 未配置上限时直接放行，超过上限返回 ErrRateLimited
func (c *TokenQuotaChecker) CheckDailyTokens(ctx context.Context, userID string) error {
	if c == nil || c.max <= 0 || userID == "" {
		return nil
	}
	usage, err := c.Usage(ctx, userID)
	if err != nil {
		return err
	}
	if usage.Used >= c.max {
		return apperrors.ErrRateLimited.WithError(TokenQuotaExceededError{
			UserID: userID,
			Max:    c.max,
			Used:   usage.Used,
		}).WithDetail("daily token budget exhausted")
	}
	return nil
}
