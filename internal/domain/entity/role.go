package entity

import (
	"time"

	"gorm.io/gorm"
)

// AppRole 平台角色
type AppRole string

const (
	AppRoleAdmin   AppRole = "admin"
	AppRoleCreator AppRole = "creator"
	AppRolePatron  AppRole = "patron"
)

// Valid 检查角色是否合法
func (r AppRole) Valid() bool {
	return r == AppRoleAdmin || r == AppRoleCreator || r == AppRolePatron
}

// UserRole 用户角色授予记录
type UserRole struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_user_role"`
	Role      AppRole   `json:"role" gorm:"type:varchar(16);not null;uniqueIndex:idx_user_roles_user_role"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (UserRole) TableName() string {
	return "user_roles"
}

// BeforeCreate 生成主键
func (r *UserRole) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// TurnRole 对话角色
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)
