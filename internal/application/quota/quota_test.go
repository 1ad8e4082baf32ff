package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/service"
	apperrors "anime-forge-api/pkg/errors"
)

type fakeUsageRepo struct {
	events []*entity.LLMUsageEvent
	sums   map[string]int64
	start  time.Time
	end    time.Time
}

func (r *fakeUsageRepo) Create(_ context.Context, evt *entity.LLMUsageEvent) error {
	r.events = append(r.events, evt)
	return nil
}

func (r *fakeUsageRepo) SumTokensByWorkflow(_ context.Context, _ string, start, end time.Time) (map[string]int64, error) {
	r.start, r.end = start, end
	return r.sums, nil
}

func TestLLMUsageRecorder_Record(t *testing.T) {
	repo := &fakeUsageRepo{}
	rec := NewLLMUsageRecorder(repo)
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, service.LLMUsageInput{Workflow: "x", PromptTokens: 1}))
	assert.Empty(t, repo.events, "anonymous usage is not persisted")

	require.Error(t, rec.Record(ctx, service.LLMUsageInput{UserID: "u1", PromptTokens: -1}))

	require.NoError(t, rec.Record(ctx, service.LLMUsageInput{
		UserID: " u1 ", Workflow: service.WorkflowPanelVariations, Provider: "gateway",
		Model: "m", PromptTokens: 10, CompletionTokens: 20, DurationMs: 5,
	}))
	require.Len(t, repo.events, 1)
	assert.Equal(t, "u1", repo.events[0].UserID)
	assert.Equal(t, 20, repo.events[0].TokensCompletion)
}

func TestTokenQuotaChecker(t *testing.T) {
	repo := &fakeUsageRepo{sums: map[string]int64{service.WorkflowPanelVariations: 300, service.WorkflowStoryDrafter: 200}}
	ctx := context.Background()

	unlimited := NewTokenQuotaChecker(repo, 0)
	assert.NoError(t, unlimited.CheckDailyTokens(ctx, "u1"))

	c := NewTokenQuotaChecker(repo, 1000)
	c.now = func() time.Time { return time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC) }
	require.NoError(t, c.CheckDailyTokens(ctx, "u1"))
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), repo.start)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), repo.end)

	usage, err := c.Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), usage.Used)
	require.NotNil(t, usage.Remaining)
	assert.Equal(t, int64(500), *usage.Remaining)
	assert.Equal(t, int64(300), usage.ByWorkflow[service.WorkflowPanelVariations])

	repo.sums[service.WorkflowStyleDNA] = 500
	err = c.CheckDailyTokens(ctx, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRateLimited))
	var qe TokenQuotaExceededError
	assert.True(t, errors.As(err, &qe))
	assert.Equal(t, int64(1000), qe.Used)
}

func TestTokenQuotaChecker_UnlimitedUsage(t *testing.T) {
	c := NewTokenQuotaChecker(&fakeUsageRepo{}, 0)
	usage, err := c.Usage(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, usage.Used)
	assert.Nil(t, usage.Remaining)
	assert.NotNil(t, usage.ByWorkflow)
}
