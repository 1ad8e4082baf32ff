// Package entity 定义领域实体
package entity

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusPilot      ProjectStatus = "pilot"
	ProjectStatusFunding    ProjectStatus = "funding"
	ProjectStatusFunded     ProjectStatus = "funded"
	ProjectStatusProduction ProjectStatus = "production"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// Valid 检查状态是否合法
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusPilot, ProjectStatusFunding,
		ProjectStatusFunded, ProjectStatusProduction, ProjectStatusCompleted:
		return true
	}
	return false
}

// LaunchpadStatuses 出现在 Launchpad 上、可接受资助的状态
var LaunchpadStatuses = []ProjectStatus{ProjectStatusPilot, ProjectStatusFunding, ProjectStatusFunded}

// OpenForFunding 是否接受资助
func (s ProjectStatus) OpenForFunding() bool {
	for _, st := range LaunchpadStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// FundingTier 资助档位
type FundingTier string

const (
	FundingTierSeed       FundingTier = "seed"
	FundingTierHype       FundingTier = "hype"
	FundingTierProduction FundingTier = "production"
	FundingTierPremiere   FundingTier = "premiere"
)

// Valid 检查档位是否合法
func (t FundingTier) Valid() bool {
	switch t {
	case FundingTierSeed, FundingTierHype, FundingTierProduction, FundingTierPremiere:
		return true
	}
	return false
}

const (
	DefaultProjectDescription = "A new anime creation"
	DefaultFundingGoal        = 10000
	DefaultBondingCurvePrice  = 0.01
)

// Project 动画项目实体
type Project struct {
	ID                string        `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string        `json:"name" gorm:"type:varchar(255);not null"`
	Description       string        `json:"description" gorm:"type:text"`
	Genre             string        `json:"genre" gorm:"type:varchar(100)"`
	Status            ProjectStatus `json:"status" gorm:"type:varchar(32);not null;default:'draft';index"`
	FundingTier       FundingTier   `json:"funding_tier" gorm:"type:varchar(32);not null;default:'seed'"`
	FundingGoal       float64       `json:"funding_goal" gorm:"type:double precision;not null;default:0"`
	FundingCurrent    float64       `json:"funding_current" gorm:"type:double precision;not null;default:0"`
	FundingPercentage float64       `json:"funding_percentage" gorm:"type:double precision;not null;default:0"`
	BondingCurvePrice float64       `json:"bonding_curve_price" gorm:"type:double precision;not null;default:0.01"`
	CoverImageURL     string        `json:"cover_image_url" gorm:"type:text"`
	StoryBible        *StoryBible   `json:"story_bible" gorm:"type:jsonb;serializer:json"`
	CreatedBy         string        `json:"created_by" gorm:"type:uuid;index"`
	CreatedAt         time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// BeforeCreate 生成主键
func (p *Project) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// NewProject 创建新项目
func NewProject(createdBy, name string) *Project {
	now := time.Now()
	return &Project{
		Name:              name,
		Description:       DefaultProjectDescription,
		Status:            ProjectStatusDraft,
		FundingTier:       FundingTierSeed,
		FundingGoal:       DefaultFundingGoal,
		BondingCurvePrice: DefaultBondingCurvePrice,
		StoryBible:        &StoryBible{},
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsOwnedBy 是否为项目创建者
func (p *Project) IsOwnedBy(userID string) bool {
	return p != nil && userID != "" && p.CreatedBy == userID
}

// FundingPercentageFor 按目标金额计算资助百分比（保留两位小数）
func FundingPercentageFor(current, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Round(current/goal*100*100) / 100
}

// FundingGoalReached 以原始金额比较，不受百分比舍入影响
func FundingGoalReached(current, goal float64) bool {
	return goal > 0 && current >= goal
}
