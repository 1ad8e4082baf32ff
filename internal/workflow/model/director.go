package model

import "anime-forge-api/internal/domain/entity"

// VariationsInput 分镜变体生成请求
type VariationsInput struct {
	LLMParams

	PanelDescription string
	Dialogue         string
	CharacterContext string
	StylePreferences []string
}

type VariationsOutput struct {
	Variations []entity.Variation
	Raw        string
	Meta       LLMUsageMeta
}
