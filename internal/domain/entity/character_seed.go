package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultCharacterName = "New Character"
	DefaultCharacterRole = "supporting"
)

// CharacterSeed 角色种子
type CharacterSeed struct {
	ID                string            `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID         string            `json:"project_id" gorm:"type:uuid;index;not null"`
	Name              string            `json:"name" gorm:"type:varchar(255);not null"`
	Role              string            `json:"role" gorm:"type:varchar(64);not null;default:'supporting'"`
	StyleDNA          datatypes.JSONMap `json:"style_dna" gorm:"type:jsonb"`
	Personality       StringList        `json:"personality"`
	Backstory         string            `json:"backstory" gorm:"type:text"`
	Abilities         StringList        `json:"abilities"`
	Appearance        string            `json:"appearance" gorm:"type:text"`
	ReferenceImageURL string            `json:"reference_image_url" gorm:"type:text"`
	CreatedBy         string            `json:"created_by" gorm:"type:uuid"`
	CreatedAt         time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (CharacterSeed) TableName() string {
	return "character_seeds"
}

// BeforeCreate 生成主键
func (c *CharacterSeed) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// NewCharacterSeed 以默认值创建角色
func NewCharacterSeed(projectID, createdBy string) *CharacterSeed {
	now := time.Now()
	return &CharacterSeed{
		ProjectID:   projectID,
		Name:        DefaultCharacterName,
		Role:        DefaultCharacterRole,
		StyleDNA:    datatypes.JSONMap{},
		Personality: StringList{"Mysterious"},
		Abilities:   StringList{},
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StyleDNA 角色画风基因
type StyleDNA struct {
	FaceShape    string   `json:"face_shape"`
	EyeStyle     string   `json:"eye_style"`
	HairColor    string   `json:"hair_color"`
	HairStyle    string   `json:"hair_style"`
	ColorPalette []string `json:"color_palette"`
	LineWeight   string   `json:"line_weight"`
	ShadingStyle string   `json:"shading_style"`
}

// Complete 所有字段均已填写
func (d StyleDNA) Complete() bool {
	return d.FaceShape != "" && d.EyeStyle != "" && d.HairColor != "" && d.HairStyle != "" &&
		len(d.ColorPalette) > 0 && d.LineWeight != "" && d.ShadingStyle != ""
}

// ToMap 转换为 jsonb 存储格式
func (d StyleDNA) ToMap() datatypes.JSONMap {
	palette := make([]any, 0, len(d.ColorPalette))
	for _, c := range d.ColorPalette {
		palette = append(palette, c)
	}
	return datatypes.JSONMap{
		"face_shape":    d.FaceShape,
		"eye_style":     d.EyeStyle,
		"hair_color":    d.HairColor,
		"hair_style":    d.HairStyle,
		"color_palette": palette,
		"line_weight":   d.LineWeight,
		"shading_style": d.ShadingStyle,
	}
}
