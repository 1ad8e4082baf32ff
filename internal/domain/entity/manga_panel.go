package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultPanelDescription = "New panel - click to edit"

// MinKeyframesToAnimate 生成动画所需的最少关键帧数
const MinKeyframesToAnimate = 2

// MangaPanel 漫画分镜
type MangaPanel struct {
	ID            string         `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID     string         `json:"project_id" gorm:"type:uuid;index;not null"`
	ChapterNumber int            `json:"chapter_number" gorm:"not null;default:1"`
	PageNumber    int            `json:"page_number" gorm:"not null;default:1"`
	PanelPosition int            `json:"panel_position" gorm:"not null;default:0"`
	PromptData    datatypes.JSON `json:"prompt_data" gorm:"type:jsonb"`
	Dialogue      string         `json:"dialogue" gorm:"type:text"`
	Description   string         `json:"description" gorm:"type:text"`
	ImageURL      string         `json:"image_url" gorm:"type:text"`
	IsKeyframe    bool           `json:"is_keyframe" gorm:"not null;default:false"`
	CreatedBy     string         `json:"created_by" gorm:"type:uuid"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (MangaPanel) TableName() string {
	return "manga_panels"
}

// BeforeCreate 生成主键
func (p *MangaPanel) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// NewMangaPanel 在指定章节页追加分镜
func NewMangaPanel(projectID, createdBy string, chapter, page, position int) *MangaPanel {
	now := time.Now()
	return &MangaPanel{
		ProjectID:     projectID,
		ChapterNumber: chapter,
		PageNumber:    page,
		PanelPosition: position,
		Description:   DefaultPanelDescription,
		PromptData:    datatypes.JSON("{}"),
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
