package dto

import (
	"anime-forge-api/internal/application/director"
	"anime-forge-api/internal/domain/entity"
)

// PanelVariationsRequest 覆盖默认画风偏好
type PanelVariationsRequest struct {
	StylePreferences []string `json:"stylePreferences"`
}

// DirectorChoiceRequest 选择变体
type DirectorChoiceRequest struct {
	Variations    []entity.Variation `json:"variations" binding:"required"`
	SelectedIndex *int               `json:"selected_index" binding:"required"`
	ImageURL      string             `json:"image_url"`
}

// ToChoiceInput 转换为服务参数
func (r *DirectorChoiceRequest) ToChoiceInput() director.ChoiceInput {
	return director.ChoiceInput{
		Variations:    r.Variations,
		SelectedIndex: *r.SelectedIndex,
		ImageURL:      r.ImageURL,
	}
}

// MessageRequest 对话消息
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}
