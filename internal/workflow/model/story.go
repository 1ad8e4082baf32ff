package model

import "anime-forge-api/internal/domain/entity"

// StoryBibleInput 故事设定集补全请求
type StoryBibleInput struct {
	LLMParams

	ProjectName        string
	ProjectGenre       string
	ProjectDescription string
	Current            *entity.StoryBible
}

type StoryBibleOutput struct {
	Bible *entity.StoryBible
	Raw   string
	Meta  LLMUsageMeta
}

// StyleDNAInput 角色画风基因生成请求
type StyleDNAInput struct {
	LLMParams

	ProjectGenre string
	Name         string
	Role         string
	Appearance   string
	Personality  []string
	Backstory    string
}

type StyleDNAOutput struct {
	DNA  entity.StyleDNA
	Raw  string
	Meta LLMUsageMeta
}

// DraftTurn 对话历史中的一轮
type DraftTurn struct {
	Role    entity.TurnRole
	Content string
}

// DrafterInput 故事共创对话请求
type DrafterInput struct {
	LLMParams

	ProjectName string
	StoryBible  *entity.StoryBible
	History     []DraftTurn
	Message     string
}
