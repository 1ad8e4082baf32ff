package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VariationCount Director's Choice 每次给出的变体数
const VariationCount = 4

const ChoiceTypePanelVariation = "panel_variation"

// Variation 分镜画面提示词变体
type Variation struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	StyleNotes  string `json:"style_notes"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// DirectorChoice 导演选择记录
type DirectorChoice struct {
	ID            string            `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID     string            `json:"project_id" gorm:"type:uuid;index;not null"`
	PanelID       string            `json:"panel_id" gorm:"type:uuid;index"`
	ChoiceType    string            `json:"choice_type" gorm:"type:varchar(64);not null"`
	Variations    []Variation       `json:"variations" gorm:"type:jsonb;serializer:json"`
	SelectedIndex *int              `json:"selected_index"`
	SelectedBy    string            `json:"selected_by" gorm:"type:uuid"`
	SelectedAt    *time.Time        `json:"selected_at"`
	Metadata      datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (DirectorChoice) TableName() string {
	return "director_choices"
}

// BeforeCreate 生成主键
func (d *DirectorChoice) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// Selected 返回被选中的变体
func (d *DirectorChoice) Selected() (Variation, bool) {
	if d == nil || d.SelectedIndex == nil {
		return Variation{}, false
	}
	i := *d.SelectedIndex
	if i < 0 || i >= len(d.Variations) {
		return Variation{}, false
	}
	return d.Variations[i], true
}
