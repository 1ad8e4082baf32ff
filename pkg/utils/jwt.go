// Package utils 令牌签发与校验
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrWrongType    = errors.New("wrong token type")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// clockSkew 容忍的签发方与校验方时钟偏差
const clockSkew = 5 * time.Second

// Claims 访问令牌与刷新令牌共用；用户 ID 在 sub
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	Type  string   `json:"typ"`
	jwt.RegisteredClaims
}

// UserID 令牌主体
func (c *Claims) UserID() string {
	return c.Subject
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// JWTManager HS256 签发与校验
type JWTManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTManager(secret, issuer string) *JWTManager {
	return &JWTManager{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// GenerateTokenPair 同时签发访问令牌与刷新令牌；刷新令牌不带角色，刷新时重新读取
func (m *JWTManager) GenerateTokenPair(userID string, roles []string, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	access, err := m.GenerateToken(userID, roles, TokenTypeAccess, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.GenerateToken(userID, nil, TokenTypeRefresh, refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *JWTManager) GenerateToken(userID string, roles []string, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Roles: roles,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken 校验签名、签发方与有效期
func (m *JWTManager) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.Subject == "":
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAs 解析并要求令牌类型一致
func (m *JWTManager) ParseAs(raw, tokenType string) (*Claims, error) {
	claims, err := m.ParseToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenType {
		return nil, ErrWrongType
	}
	return claims, nil
}
