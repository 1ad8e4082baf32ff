package dto

import (
	"anime-forge-api/internal/application/auth"
	"anime-forge-api/internal/domain/entity"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"max=128"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新请求，未提供时读取 Cookie
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest 修改资料
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=128"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,max=2048"`
	Bio         *string `json:"bio" binding:"omitempty,max=2000"`
}

// ToProfileUpdate 转换为服务参数
func (r *UpdateProfileRequest) ToProfileUpdate() auth.ProfileUpdate {
	return auth.ProfileUpdate{DisplayName: r.DisplayName, AvatarURL: r.AvatarURL, Bio: r.Bio}
}

// AuthUserDTO 认证响应中的用户信息
type AuthUserDTO struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	Roles       []string `json:"roles"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int          `json:"expires_in"`
	User         *AuthUserDTO `json:"user"`
}

// ToAuthUserDTO 将账户转换为 DTO
func ToAuthUserDTO(acc *auth.Account) *AuthUserDTO {
	if acc == nil || acc.Profile == nil {
		return nil
	}
	return &AuthUserDTO{
		ID:          acc.Profile.ID,
		Email:       acc.Profile.Email,
		DisplayName: acc.Profile.DisplayName,
		AvatarURL:   acc.Profile.AvatarURL,
		Bio:         acc.Profile.Bio,
		Roles:       roleStrings(acc.Roles),
	}
}

func roleStrings(roles []entity.AppRole) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
