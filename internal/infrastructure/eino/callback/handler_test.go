package callback

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/domain/service"
)

type fakeRecorder struct {
	got []service.LLMUsageInput
	err error
}

func (f *fakeRecorder) Record(_ context.Context, in service.LLMUsageInput) error {
	f.got = append(f.got, in)
	return f.err
}

func TestUsageTap_RecordsUsageWithCallLabels(t *testing.T) {
	rec := &fakeRecorder{}
	tap := usageTap{recorder: rec}

	ctx := service.WithLLMCall(context.Background(), service.WorkflowPanelVariations, "gateway", "u1")
	ctx = tap.onStart(ctx, &einocb.RunInfo{Name: "director"}, &model.CallbackInput{Config: &model.Config{Model: "gpt-4o-mini"}})
	tap.onEnd(ctx, nil, &model.CallbackOutput{
		TokenUsage: &model.TokenUsage{PromptTokens: 120, CompletionTokens: 45},
	})

	require.Len(t, rec.got, 1)
	in := rec.got[0]
	assert.Equal(t, "u1", in.UserID)
	assert.Equal(t, service.WorkflowPanelVariations, in.Workflow)
	assert.Equal(t, "gateway", in.Provider)
	assert.Equal(t, "gpt-4o-mini", in.Model)
	assert.Equal(t, 120, in.PromptTokens)
	assert.Equal(t, 45, in.CompletionTokens)
	assert.GreaterOrEqual(t, in.DurationMs, 0)
}

func TestUsageTap_SkipsEmptyUsageAndErrors(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	tap := usageTap{recorder: rec}

	ctx := tap.onStart(context.Background(), nil, nil)
	tap.onEnd(ctx, nil, &model.CallbackOutput{})
	tap.onEnd(ctx, nil, &model.CallbackOutput{TokenUsage: &model.TokenUsage{}})
	assert.Empty(t, rec.got)

	tap.onError(ctx, nil, errors.New("timeout"))
	assert.Empty(t, rec.got)

	// 记录失败只打日志
	tap.onEnd(ctx, nil, &model.CallbackOutput{TokenUsage: &model.TokenUsage{PromptTokens: 1}})
	require.Len(t, rec.got, 1)
	assert.Equal(t, "unknown", rec.got[0].Workflow)
}
