package entity

import (
	"time"

	"gorm.io/gorm"
)

// LLMUsageEvent 单次模型调用的用量
type LLMUsageEvent struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           string    `json:"user_id" gorm:"type:uuid;index"`
	Workflow         string    `json:"workflow" gorm:"type:varchar(64);not null"`
	Provider         string    `json:"provider" gorm:"type:varchar(32);not null"`
	Model            string    `json:"model" gorm:"type:varchar(64);not null"`
	TokensPrompt     int       `json:"tokens_prompt" gorm:"not null;default:0"`
	TokensCompletion int       `json:"tokens_completion" gorm:"not null;default:0"`
	DurationMs       int       `json:"duration_ms" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (LLMUsageEvent) TableName() string {
	return "llm_usage_events"
}

func (e *LLMUsageEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
