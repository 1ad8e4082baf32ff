package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/session"
	apperrors "anime-forge-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	tokens map[string]*session.Session
}

func (f *fakeAuthenticator) Authenticate(token string) (*session.Session, error) {
	if s, ok := f.tokens[token]; ok {
		return s, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func newAuthRouter(cfg AuthConfig) *gin.Engine {
	authn := &fakeAuthenticator{tokens: map[string]*session.Session{
		"creator-token": session.New("u-1", []string{"creator"}),
		"admin-token":   session.New("u-2", []string{"admin"}),
	}}
	r := gin.New()
	r.Use(Auth(authn, cfg))
	handler := func(c *gin.Context) {
		c.String(http.StatusOK, session.UserID(c.Request.Context()))
	}
	r.GET("/health", handler)
	r.GET("/me", handler)
	r.GET("/admin", RequireAdmin(), handler)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newAuthRouter(AuthConfig{SkipPaths: DefaultSkipPaths})

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"skip path", "/health", "", http.StatusOK, ""},
		{"missing token", "/me", "", http.StatusUnauthorized, ""},
		{"malformed header", "/me", "Token abc", http.StatusUnauthorized, ""},
		{"unknown token", "/me", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "/me", "Bearer creator-token", http.StatusOK, "u-1"},
		{"lowercase scheme", "/me", "bearer creator-token", http.StatusOK, "u-1"},
		{"admin route as creator", "/admin", "Bearer creator-token", http.StatusForbidden, ""},
		{"admin route as admin", "/admin", "Bearer admin-token", http.StatusOK, "u-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := do(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestAuth_QueryTokenOnlyForWebSocket(t *testing.T) {
	r := newAuthRouter(AuthConfig{})

	req := httptest.NewRequest(http.MethodGet, "/me?access_token=creator-token", nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me?access_token=creator-token", nil)
	req.Header.Set("Upgrade", "websocket")
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())
}

func TestAuth_Optional(t *testing.T) {
	r := newAuthRouter(AuthConfig{Optional: true})

	w := do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	// 令牌存在但无效仍然拒绝
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestRequireRole_NoSession(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(entity.AppRoleCreator), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func newLimitedRouter(limiter RateLimiter, cfg RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set("user_id", uid)
		}
		c.Next()
	})
	r.Use(RateLimit(cfg, limiter))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit(t *testing.T) {
	cfg := RateLimitConfig{Enabled: true, Limit: 5, Window: 30 * time.Second, Scope: "generate"}

	t.Run("allowed", func(t *testing.T) {
		limiter := &fakeLimiter{allow: true}
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Test-User", "u-1")
		w := do(newLimitedRouter(limiter, cfg), req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		require.Len(t, limiter.keys, 1)
		assert.Contains(t, limiter.keys[0], "u-1")
		assert.Contains(t, limiter.keys[0], "generate")
	})

	t.Run("denied", func(t *testing.T) {
		limiter := &fakeLimiter{allow: false}
		w := do(newLimitedRouter(limiter, cfg), httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "30", w.Header().Get("Retry-After"))
		require.Len(t, limiter.keys, 1)
		assert.Contains(t, limiter.keys[0], "ip:")
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		limiter := &fakeLimiter{err: errors.New("redis down")}
		w := do(newLimitedRouter(limiter, cfg), httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		limiter := &fakeLimiter{}
		w := do(newLimitedRouter(limiter, RateLimitConfig{Enabled: false, Limit: 1}), httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, limiter.keys)
	})
}

func TestProjectContext(t *testing.T) {
	r := gin.New()
	r.GET("/projects/:pid", ProjectContext(""), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("project_id"))
	})
	w := do(r, httptest.NewRequest(http.MethodGet, "/projects/p-42", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p-42", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := do(r, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", 100))
	w = do(r, req)
	assert.Len(t, w.Body.String(), 36)
}
