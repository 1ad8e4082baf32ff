package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectRight 项目权益份额
type ProjectRight struct {
	ID          string            `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID   string            `json:"project_id" gorm:"type:uuid;index;not null"`
	HolderID    string            `json:"holder_id" gorm:"type:uuid;index"`
	RightsType  string            `json:"rights_type" gorm:"type:varchar(64);not null"`
	Percentage  float64           `json:"percentage" gorm:"type:double precision;not null"`
	IsTradeable bool              `json:"is_tradeable" gorm:"not null;default:false"`
	AcquiredAt  time.Time         `json:"acquired_at"`
	PricePaid   *float64          `json:"price_paid" gorm:"type:double precision"`
	Metadata    datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
}

// TableName 指定表名
func (ProjectRight) TableName() string {
	return "project_rights"
}

// BeforeCreate 生成主键并补齐获得时间
func (r *ProjectRight) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.AcquiredAt.IsZero() {
		r.AcquiredAt = time.Now()
	}
	return nil
}
