package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"anime-forge-api/internal/application/auth"
	"anime-forge-api/internal/application/quota"
	"anime-forge-api/internal/domain/session"
	"anime-forge-api/internal/interfaces/http/dto"
	apperrors "anime-forge-api/pkg/errors"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/v1/auth"
)

// UsageReader 当日 LLM 用量
type UsageReader interface {
	Usage(ctx context.Context, userID string) (*quota.DailyUsage, error)
}

// AuthHandler 认证处理器
type AuthHandler struct {
	auth         *auth.Service
	usage        UsageReader
	secureCookie bool
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authSvc *auth.Service, usage UsageReader, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: authSvc, usage: usage, secureCookie: secureCookie}
}

// Register 注册
// @Summary 用户注册
// @Description 注册后默认授予 creator 角色并直接登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sess, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	h.setRefreshCookie(c, sess.Tokens.RefreshToken)
	dto.Created(c, toAuthResponse(sess))
}

// Login 登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	h.setRefreshCookie(c, sess.Tokens.RefreshToken)
	dto.Success(c, toAuthResponse(sess))
}

// Refresh 刷新访问令牌，优先读取请求体，其次读取 Cookie
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		dto.Fail(c, apperrors.ErrTokenMissing)
		return
	}

	access, expiresIn, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.AuthResponse{AccessToken: access, ExpiresIn: expiresIn})
}

// Logout 登出并清除刷新令牌 Cookie
// @Router /v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.secureCookie, true)
	dto.NoContent(c)
}

// Me 当前用户资料与角色
// @Router /v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	acc, err := h.auth.Me(c.Request.Context())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToAuthUserDTO(acc))
}

// UpdateMe 修改资料
// @Router /v1/auth/me [patch]
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	acc, err := h.auth.UpdateMe(c.Request.Context(), req.ToProfileUpdate())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToAuthUserDTO(acc))
}

// Usage 当日 LLM Token 用量
// @Router /v1/auth/usage [get]
func (h *AuthHandler) Usage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := session.UserID(ctx)
	if userID == "" {
		dto.Fail(c, apperrors.ErrUnauthorized)
		return
	}
	if h.usage == nil {
		dto.Success(c, &quota.DailyUsage{ByWorkflow: map[string]int64{}})
		return
	}

	usage, err := h.usage.Usage(ctx, userID)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, usage)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if token == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, int(h.auth.RefreshTTL().Seconds()), refreshCookiePath, "", h.secureCookie, true)
}

func toAuthResponse(sess *auth.Session) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		ExpiresIn:    sess.ExpiresIn,
		User:         dto.ToAuthUserDTO(sess.Account),
	}
}
