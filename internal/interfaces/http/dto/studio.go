package dto

import (
	"encoding/json"

	"anime-forge-api/internal/application/catalog"
	"anime-forge-api/internal/application/studio"
	"anime-forge-api/internal/domain/entity"
)

// GenerateStoryBibleRequest 可携带尚未保存的设定集
type GenerateStoryBibleRequest struct {
	StoryBible *entity.StoryBible `json:"story_bible"`
}

// CharacterRequest 创建或更新角色
type CharacterRequest struct {
	Name              *string        `json:"name" binding:"omitempty,max=255"`
	Role              *string        `json:"role" binding:"omitempty,max=64"`
	Personality       []string       `json:"personality"`
	Backstory         *string        `json:"backstory"`
	Abilities         []string       `json:"abilities"`
	Appearance        *string        `json:"appearance"`
	ReferenceImageURL *string        `json:"reference_image_url"`
	StyleDNA          map[string]any `json:"style_dna"`
}

// ToCharacterInput 转换为服务参数
func (r *CharacterRequest) ToCharacterInput() studio.CharacterInput {
	return studio.CharacterInput{
		Name:              r.Name,
		Role:              r.Role,
		Personality:       r.Personality,
		Backstory:         r.Backstory,
		Abilities:         r.Abilities,
		Appearance:        r.Appearance,
		ReferenceImageURL: r.ReferenceImageURL,
		StyleDNA:          r.StyleDNA,
	}
}

// AddPanelRequest 新增分镜
type AddPanelRequest struct {
	ChapterNumber int `json:"chapter_number" binding:"gte=0"`
	PageNumber    int `json:"page_number" binding:"gte=0"`
}

// UpdatePanelRequest 更新分镜
type UpdatePanelRequest struct {
	Description   *string         `json:"description"`
	Dialogue      *string         `json:"dialogue"`
	ImageURL      *string         `json:"image_url"`
	PromptData    json.RawMessage `json:"prompt_data"`
	ChapterNumber *int            `json:"chapter_number"`
	PageNumber    *int            `json:"page_number"`
	PanelPosition *int            `json:"panel_position"`
}

// ToPanelInput 转换为服务参数
func (r *UpdatePanelRequest) ToPanelInput() studio.PanelInput {
	return studio.PanelInput{
		Description:   r.Description,
		Dialogue:      r.Dialogue,
		ImageURL:      r.ImageURL,
		PromptData:    r.PromptData,
		ChapterNumber: r.ChapterNumber,
		PageNumber:    r.PageNumber,
		PanelPosition: r.PanelPosition,
	}
}

// CreateStyleRequest 新建画风
type CreateStyleRequest struct {
	Name        string   `json:"name" binding:"required,max=128"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	PreviewURL  string   `json:"preview_url"`
	IsActive    *bool    `json:"is_active"`
}

// ToStyleInput 转换为服务参数
func (r *CreateStyleRequest) ToStyleInput() catalog.StyleInput {
	return catalog.StyleInput{
		Name:        r.Name,
		Description: r.Description,
		Tags:        r.Tags,
		PreviewURL:  r.PreviewURL,
		IsActive:    r.IsActive,
	}
}

// GrantRightRequest 授予权益
type GrantRightRequest struct {
	HolderID    string         `json:"holder_id" binding:"required"`
	RightsType  string         `json:"rights_type" binding:"required,max=64"`
	Percentage  float64        `json:"percentage" binding:"required"`
	IsTradeable bool           `json:"is_tradeable"`
	PricePaid   *float64       `json:"price_paid"`
	Metadata    map[string]any `json:"metadata"`
}

// ToRightInput 转换为服务参数
func (r *GrantRightRequest) ToRightInput() catalog.RightInput {
	return catalog.RightInput{
		HolderID:    r.HolderID,
		RightsType:  r.RightsType,
		Percentage:  r.Percentage,
		IsTradeable: r.IsTradeable,
		PricePaid:   r.PricePaid,
		Metadata:    r.Metadata,
	}
}
