package dto

import (
	"anime-forge-api/internal/application/project"
	"anime-forge-api/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Description string   `json:"description"`
	Genre       string   `json:"genre" binding:"max=100"`
	FundingGoal *float64 `json:"funding_goal" binding:"omitempty,gte=0"`
}

// ToCreateInput 转换为服务参数
func (r *CreateProjectRequest) ToCreateInput() project.CreateInput {
	return project.CreateInput{
		Name:        r.Name,
		Description: r.Description,
		Genre:       r.Genre,
		FundingGoal: r.FundingGoal,
	}
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name          *string  `json:"name" binding:"omitempty,max=255"`
	Description   *string  `json:"description"`
	Genre         *string  `json:"genre" binding:"omitempty,max=100"`
	Status        *string  `json:"status"`
	FundingTier   *string  `json:"funding_tier"`
	FundingGoal   *float64 `json:"funding_goal"`
	CoverImageURL *string  `json:"cover_image_url"`
}

// ToUpdateInput 转换为服务参数
func (r *UpdateProjectRequest) ToUpdateInput() project.UpdateInput {
	in := project.UpdateInput{
		Name:          r.Name,
		Description:   r.Description,
		Genre:         r.Genre,
		FundingGoal:   r.FundingGoal,
		CoverImageURL: r.CoverImageURL,
	}
	if r.Status != nil {
		st := entity.ProjectStatus(*r.Status)
		in.Status = &st
	}
	if r.FundingTier != nil {
		tier := entity.FundingTier(*r.FundingTier)
		in.FundingTier = &tier
	}
	return in
}

// FundRequest 资助请求
type FundRequest struct {
	Amount float64 `json:"amount"`
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*entity.Project `json:"projects"`
}
