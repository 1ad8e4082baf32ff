package node

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	"anime-forge-api/internal/domain/entity"
	wfmodel "anime-forge-api/internal/workflow/model"
)

// BuildStoryBibleBlock 将设定集压缩为提示词片段，空设定集返回空串
func BuildStoryBibleBlock(bible *entity.StoryBible) string {
	if bible == nil {
		return ""
	}
	b, err := json.Marshal(bible)
	if err != nil || string(b) == "{}" {
		return ""
	}
	return "Story bible so far:\n" + TruncateByRunes(string(b), 6000)
}

// BuildHistoryMessages 对话历史转为模型消息
func BuildHistoryMessages(turns []wfmodel.DraftTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch t.Role {
		case entity.TurnRoleAssistant:
			out = append(out, schema.AssistantMessage(content, nil))
		default:
			out = append(out, schema.UserMessage(content))
		}
	}
	return out
}
