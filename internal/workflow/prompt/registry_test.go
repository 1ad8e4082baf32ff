package prompt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FormatsEveryPrompt(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	cases := []struct {
		id   PromptID
		vars map[string]any
		want string
	}{
		{
			id: PromptPanelVariationsV1,
			vars: map[string]any{
				"panel_description": "Hero on a rooftop",
				"dialogue_block":    "",
				"characters_block":  "",
				"style_preferences": "anime, manga",
			},
			want: "Panel Description: Hero on a rooftop",
		},
		{
			id: PromptStoryBibleV1,
			vars: map[string]any{
				"project_name":        "Echoes",
				"project_genre":       "fantasy",
				"project_description": "d",
				"current_bible_json":  "{}",
				"missing_fields":      "logline",
			},
			want: "Missing fields: logline",
		},
		{
			id: PromptStyleDNAV1,
			vars: map[string]any{
				"project_genre": "", "name": "Aki", "role": "protagonist",
				"appearance": "", "personality": "", "backstory": "",
			},
			want: "Character: Aki (protagonist)",
		},
		{
			id: PromptStoryDrafterV1,
			vars: map[string]any{
				"project_name":      "Echoes",
				"story_bible_block": "",
				"message":           "a hero story",
				HistoryKey: []*schema.Message{
					schema.AssistantMessage("welcome", nil),
				},
			},
			want: "a hero story",
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.id), func(t *testing.T) {
			tpl, err := r.ChatTemplate(tc.id)
			require.NoError(t, err)

			msgs, err := tpl.Format(ctx, tc.vars)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(msgs), 2)
			assert.Equal(t, schema.System, msgs[0].Role)
			assert.Contains(t, msgs[len(msgs)-1].Content, tc.want)
		})
	}
}

func TestRegistry_JSONBracesSurviveFormatting(t *testing.T) {
	tpl, err := NewRegistry().ChatTemplate(PromptPanelVariationsV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"panel_description": "x", "dialogue_block": "", "characters_block": "", "style_preferences": "",
	})
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Content, `{"variations":[...]}`)
}

func TestRegistry_UnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("nope")
	require.Error(t, err)
}

func TestRegistry_DrafterHistoryOrder(t *testing.T) {
	tpl, err := NewRegistry().ChatTemplate(PromptStoryDrafterV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"project_name": "p", "story_bible_block": "", "message": "third",
		HistoryKey: []*schema.Message{
			schema.AssistantMessage("first", nil),
			schema.UserMessage("second"),
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, "second", msgs[2].Content)
	assert.Equal(t, schema.User, msgs[3].Role)
}
