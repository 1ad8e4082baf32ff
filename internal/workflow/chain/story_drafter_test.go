package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/domain/entity"
	wfmodel "anime-forge-api/internal/workflow/model"
)

type recordingModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (m *recordingModel) Generate(_ context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.seen = msgs
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *recordingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type staticFactory struct{ m model.BaseChatModel }

func (f staticFactory) Get(context.Context, string) (model.BaseChatModel, error) { return f.m, nil }

func TestStoryDrafterChain_Invoke(t *testing.T) {
	m := &recordingModel{reply: "Love it. Where is it set?"}
	c := NewStoryDrafterChain(staticFactory{m: m})

	out, err := c.Invoke(context.Background(), &wfmodel.DrafterInput{
		ProjectName: "Echoes",
		StoryBible:  &entity.StoryBible{Logline: "A ronin seeks the last star"},
		History: []wfmodel.DraftTurn{
			{Role: entity.TurnRoleAssistant, Content: "Welcome"},
		},
		Message: "a hero with hidden powers",
	})
	require.NoError(t, err)
	assert.Equal(t, "Love it. Where is it set?", out.Content)

	require.Len(t, m.seen, 3)
	assert.Contains(t, m.seen[0].Content, "A ronin seeks the last star")
	assert.Equal(t, schema.Assistant, m.seen[1].Role)
	assert.Equal(t, "a hero with hidden powers", m.seen[2].Content)
}

func TestStoryDrafterChain_PropagatesModelError(t *testing.T) {
	c := NewStoryDrafterChain(staticFactory{m: &recordingModel{err: errors.New("status code: 500")}})

	_, err := c.Invoke(context.Background(), &wfmodel.DrafterInput{Message: "hi"})
	require.Error(t, err)
}

func TestStoryDrafterChain_RejectsEmptyMessage(t *testing.T) {
	c := NewStoryDrafterChain(staticFactory{m: &recordingModel{reply: "x"}})

	_, err := c.Invoke(context.Background(), &wfmodel.DrafterInput{Message: "   "})
	require.Error(t, err)
}

func TestFormatDrafterMessages_TrimsHistory(t *testing.T) {
	var history []wfmodel.DraftTurn
	for i := 0; i < maxHistoryTurns+5; i++ {
		history = append(history, wfmodel.DraftTurn{Role: entity.TurnRoleUser, Content: "turn"})
	}
	msgs, err := formatDrafterMessages(context.Background(), &wfmodel.DrafterInput{History: history, Message: "now"})
	require.NoError(t, err)
	assert.Len(t, msgs, maxHistoryTurns+2)
}
