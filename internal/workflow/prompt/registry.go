// Package prompt 管理内嵌的提示词模板
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptPanelVariationsV1 PromptID = "panel_variations_v1"
	PromptStoryBibleV1      PromptID = "story_bible_v1"
	PromptStyleDNAV1        PromptID = "style_dna_v1"
	PromptStoryDrafterV1    PromptID = "story_drafter_v1"
)

// HistoryKey 对话历史占位变量名
const HistoryKey = "history"

// 带对话历史占位的模板
var withHistory = map[PromptID]bool{
	PromptStoryDrafterV1: true,
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	system, err := readEmbeddedText(fmt.Sprintf("templates/%s.system.txt", id))
	if err != nil {
		return nil, fmt.Errorf("unknown prompt id: %s: %w", id, err)
	}
	user, err := readEmbeddedText(fmt.Sprintf("templates/%s.user.txt", id))
	if err != nil {
		return nil, fmt.Errorf("unknown prompt id: %s: %w", id, err)
	}

	msgs := []schema.MessagesTemplate{schema.SystemMessage(system)}
	if withHistory[id] {
		msgs = append(msgs, schema.MessagesPlaceholder(HistoryKey, true))
	}
	msgs = append(msgs, schema.UserMessage(user))

	tpl := einoprompt.FromMessages(schema.FString, msgs...)
	r.cache[id] = tpl
	return tpl, nil
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
