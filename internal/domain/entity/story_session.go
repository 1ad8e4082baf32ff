package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StorySession 故事共创对话会话
type StorySession struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID string    `json:"project_id" gorm:"type:uuid;index;not null"`
	UserID    string    `json:"user_id" gorm:"type:uuid;index;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (StorySession) TableName() string {
	return "story_sessions"
}

func (s *StorySession) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func NewStorySession(projectID, userID string) *StorySession {
	now := time.Now()
	return &StorySession{
		ProjectID: projectID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StoryTurn 会话中的一轮消息
type StoryTurn struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID string         `json:"session_id" gorm:"type:uuid;index;not null"`
	Role      TurnRole       `json:"role" gorm:"type:varchar(16);not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}

func (StoryTurn) TableName() string {
	return "story_turns"
}

func (t *StoryTurn) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func NewStoryTurn(sessionID string, role TurnRole, content string, metadata datatypes.JSON) *StoryTurn {
	return &StoryTurn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
