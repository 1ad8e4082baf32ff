// Package auth 注册、登录与会话令牌
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/repository"
	"anime-forge-api/internal/domain/session"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/logger"
	"anime-forge-api/pkg/utils"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ProfileCache /me 视图缓存
type ProfileCache interface {
	GetOrLoad(ctx context.Context, userID string, loader func() (any, error)) ([]byte, error)
}

// Account 用户资料与角色
type Account struct {
	Profile *entity.Profile  `json:"profile"`
	Roles   []entity.AppRole `json:"roles"`
}

// Session 登录结果
type Session struct {
	Account   *Account
	Tokens    *utils.TokenPair
	ExpiresIn int
}

// ProfileUpdate 可修改的资料字段
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
}

// Service 认证服务
type Service struct {
	profiles   repository.ProfileRepository
	roles      repository.UserRoleRepository
	txm        repository.Transactor
	jwt        *utils.JWTManager
	events     *session.AuthEvents
	cache      ProfileCache
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(
	profiles repository.ProfileRepository,
	roles repository.UserRoleRepository,
	txm repository.Transactor,
	events *session.AuthEvents,
	cache ProfileCache,
	cfg config.JWTConfig,
) *Service {
	accessTTL, refreshTTL := cfg.Expiration, cfg.RefreshExpiration
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Service{
		profiles:   profiles,
		roles:      roles,
		txm:        txm,
		jwt:        utils.NewJWTManager(cfg.Secret, cfg.Issuer),
		events:     events,
		cache:      cache,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// RefreshTTL 刷新令牌有效期
func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *Service) publish(ctx context.Context, typ session.EventType, userID string) {
	if s.events != nil {
		s.events.Publish(ctx, session.Event{Type: typ, UserID: userID})
	}
}

func roleNames(roles []entity.AppRole) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func (s *Service) issue(profile *entity.Profile, roles []entity.AppRole) (*Session, error) {
	tokens, err := s.jwt.GenerateTokenPair(profile.ID, roleNames(roles), s.accessTTL, s.refreshTTL)
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}
	return &Session{
		Account:   &Account{Profile: profile, Roles: roles},
		Tokens:    tokens,
		ExpiresIn: int(s.accessTTL.Seconds()),
	}, nil
}

// Register 注册并授予 creator 角色
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = entity.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.ErrInvalidParam.WithDetail("a valid email is required")
	}
	if n := len(password); n < MinPasswordLength || n > MaxPasswordLength {
		return nil, apperrors.ErrInvalidParam.WithDetail("password must be 8 to 72 characters")
	}

	exists, err := s.profiles.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailTaken
	}

	profile := entity.NewProfile(email, strings.TrimSpace(displayName))
	if err := profile.SetPassword(password); err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}
	roles := []entity.AppRole{entity.AppRoleCreator}

	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.profiles.Create(txCtx, profile); err != nil {
			return err
		}
		return s.roles.Grant(txCtx, profile.ID, entity.AppRoleCreator)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.issue(profile, roles)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, session.EventSignedIn, profile.ID)
	logger.Info(ctx, "user registered", "user_id", profile.ID)
	return out, nil
}

// Login 邮箱密码登录
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.profiles.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.profiles.UpdateLastLogin(ctx, profile.ID); err != nil {
		logger.Warn(ctx, "failed to update last login time", "error", err, "user_id", profile.ID)
	}

	roles, err := s.roles.ListRoles(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	out, err := s.issue(profile, roles)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, session.EventSignedIn, profile.ID)
	return out, nil
}

// Refresh 用刷新令牌换取新的访问令牌，角色重新读取
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", 0, apperrors.ErrTokenMissing
	}
	claims, err := s.jwt.ParseAs(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return "", 0, tokenError(err)
	}

	userID := claims.UserID()
	roles, err := s.roles.ListRoles(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	token, err := s.jwt.GenerateToken(userID, roleNames(roles), utils.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return "", 0, apperrors.ErrInternalError.WithError(err)
	}
	s.publish(ctx, session.EventTokenRefreshed, userID)
	return token, int(s.accessTTL.Seconds()), nil
}

// Logout 通知订阅者会话结束
func (s *Service) Logout(ctx context.Context) {
	if userID := session.UserID(ctx); userID != "" {
		s.publish(ctx, session.EventSignedOut, userID)
	}
}

// Me 当前用户资料，经缓存读取
func (s *Service) Me(ctx context.Context) (*Account, error) {
	userID := session.UserID(ctx)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if s.cache == nil {
		return s.loadAccount(ctx, userID)
	}

	raw, err := s.cache.GetOrLoad(ctx, userID, func() (any, error) {
		acc, err := s.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		return acc, nil
	})
	if err != nil {
		return nil, err
	}
	var acc Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}
	return &acc, nil
}

func (s *Service) loadAccount(ctx context.Context, userID string) (*Account, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.ErrUnauthorized.WithDetail("account no longer exists")
	}
	roles, err := s.roles.ListRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Account{Profile: profile, Roles: roles}, nil
}

// UpdateMe 修改资料
func (s *Service) UpdateMe(ctx context.Context, in ProfileUpdate) (*Account, error) {
	userID := session.UserID(ctx)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	acc, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := acc.Profile
	if in.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, session.EventProfileUpdated, userID)
	return acc, nil
}

// Authenticate 校验访问令牌并构造会话
func (s *Service) Authenticate(token string) (*session.Session, error) {
	claims, err := s.jwt.ParseAs(token, utils.TokenTypeAccess)
	if err != nil {
		return nil, tokenError(err)
	}
	return session.New(claims.UserID(), claims.Roles), nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, utils.ErrExpiredToken):
		return apperrors.ErrTokenExpired
	case errors.Is(err, utils.ErrWrongType):
		return apperrors.ErrTokenInvalid.WithDetail("invalid token type")
	default:
		return apperrors.ErrTokenInvalid
	}
}
