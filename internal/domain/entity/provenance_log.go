package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProvenanceAction 溯源动作
type ProvenanceAction string

const (
	ProvenanceInsert ProvenanceAction = "INSERT"
	ProvenanceUpdate ProvenanceAction = "UPDATE"
	ProvenanceDelete ProvenanceAction = "DELETE"
)

// ProvenanceLimit 单次查询上限
const ProvenanceLimit = 100

// ProvenanceLog 创作溯源日志，只追加
type ProvenanceLog struct {
	ID         string           `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID  string           `json:"project_id" gorm:"type:uuid;index"`
	EntityType string           `json:"entity_type" gorm:"type:varchar(64);not null;index"`
	EntityID   string           `json:"entity_id" gorm:"type:uuid;not null"`
	Action     ProvenanceAction `json:"action" gorm:"type:varchar(16);not null"`
	UserID     string           `json:"user_id" gorm:"type:uuid"`
	Details    datatypes.JSON   `json:"details" gorm:"type:jsonb"`
	PromptHash string           `json:"prompt_hash,omitempty" gorm:"type:varchar(64)"`
	CreatedAt  time.Time        `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName 指定表名
func (ProvenanceLog) TableName() string {
	return "provenance_logs"
}

// BeforeCreate 生成主键
func (l *ProvenanceLog) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// BeforeUpdate 溯源日志不可修改
func (l *ProvenanceLog) BeforeUpdate(*gorm.DB) error {
	return ErrProvenanceImmutable
}

// BeforeDelete 溯源日志不可删除
func (l *ProvenanceLog) BeforeDelete(*gorm.DB) error {
	return ErrProvenanceImmutable
}
