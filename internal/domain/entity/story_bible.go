package entity

import "strings"

// StoryAct 故事幕
type StoryAct struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StoryBible 故事设定集，存储于 projects.story_bible
type StoryBible struct {
	Title       string     `json:"title,omitempty"`
	Logline     string     `json:"logline,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	Setting     string     `json:"setting,omitempty"`
	Themes      []string   `json:"themes,omitempty"`
	PlotSummary string     `json:"plotSummary,omitempty"`
	WorldRules  []string   `json:"worldRules,omitempty"`
	Acts        []StoryAct `json:"acts,omitempty"`
}

// Clone 深拷贝
func (b *StoryBible) Clone() *StoryBible {
	if b == nil {
		return &StoryBible{}
	}
	cp := *b
	cp.Themes = append([]string(nil), b.Themes...)
	cp.WorldRules = append([]string(nil), b.WorldRules...)
	cp.Acts = append([]StoryAct(nil), b.Acts...)
	return &cp
}

// MergeMissing 仅用 src 填充空字段，已有内容保持不变
func (b *StoryBible) MergeMissing(src *StoryBible) *StoryBible {
	out := b.Clone()
	if src == nil {
		return out
	}
	if strings.TrimSpace(out.Logline) == "" {
		out.Logline = src.Logline
	}
	if len(out.Themes) == 0 {
		out.Themes = append([]string(nil), src.Themes...)
	}
	if len(out.WorldRules) == 0 {
		out.WorldRules = append([]string(nil), src.WorldRules...)
	}
	if len(out.Acts) == 0 {
		out.Acts = append([]StoryAct(nil), src.Acts...)
	}
	return out
}
