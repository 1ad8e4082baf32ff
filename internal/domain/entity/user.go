package entity

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Profile 用户资料（同时保存登录凭据）
type Profile struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"` // 不在 JSON 中暴露
	DisplayName  string     `json:"display_name" gorm:"type:varchar(128)"`
	AvatarURL    string     `json:"avatar_url" gorm:"type:text"`
	Bio          string     `json:"bio" gorm:"type:text"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate 生成主键
func (p *Profile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// NewProfile 创建新用户
func NewProfile(email, displayName string) *Profile {
	now := time.Now()
	return &Profile{
		Email:       NormalizeEmail(email),
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NormalizeEmail 邮箱统一小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword 设置并散列密码
func (p *Profile) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验密码
func (p *Profile) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password))
	return err == nil
}
