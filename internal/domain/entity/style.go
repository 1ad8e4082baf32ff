package entity

import (
	"time"

	"gorm.io/gorm"
)

// Style 画风库条目
type Style struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"type:varchar(128);not null;uniqueIndex"`
	Description string     `json:"description" gorm:"type:text"`
	Tags        StringList `json:"tags"`
	PreviewURL  string     `json:"preview_url" gorm:"type:text"`
	IsActive    bool       `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Style) TableName() string {
	return "style_library"
}

// BeforeCreate 生成主键
func (s *Style) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
