package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/domain/session"
	"anime-forge-api/internal/infrastructure/persistence/redis"
	"anime-forge-api/internal/testutil"
	apperrors "anime-forge-api/pkg/errors"
	"anime-forge-api/pkg/utils"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "anime-forge-test", Expiration: time.Minute, RefreshExpiration: time.Hour}

func newService(t *testing.T) (*Service, *session.AuthEvents) {
	t.Helper()
	dl := testutil.NewDataLayer(t)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	events := session.NewAuthEvents()
	cache := redis.NewProfileCache(redis.NewCache(redis.NewClientFromRedis(rdb)), events, time.Minute)
	t.Cleanup(cache.Close)

	return NewService(dl.Profiles, dl.Roles, dl.TxManager, events, cache, testJWT), events
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "  Aiko@Example.com ", "password123", "Aiko")
	require.NoError(t, err)
	assert.Equal(t, "aiko@example.com", reg.Account.Profile.Email)
	assert.Equal(t, []entity.AppRole{entity.AppRoleCreator}, reg.Account.Roles)
	assert.Equal(t, 60, reg.ExpiresIn)

	_, err = svc.Register(ctx, "aiko@example.com", "password123", "Dup")
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	_, err = svc.Login(ctx, "aiko@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	login, err := svc.Login(ctx, "AIKO@example.com", "password123")
	require.NoError(t, err)

	sess, err := svc.Authenticate(login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.Account.Profile.ID, sess.UserID)
	assert.True(t, sess.HasRole(entity.AppRoleCreator))

	// 刷新令牌不能直接用于访问
	_, err = svc.Authenticate(login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "password123", "x")
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)

	_, err = svc.Register(ctx, "a@b.c", "short", "x")
	assert.ErrorIs(t, err, apperrors.ErrInvalidParam)
}

func TestRefresh(t *testing.T) {
	svc, events := newService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, "ren@example.com", "password123", "Ren")
	require.NoError(t, err)

	var refreshed []string
	events.Subscribe(func(_ context.Context, evt session.Event) {
		if evt.Type == session.EventTokenRefreshed {
			refreshed = append(refreshed, evt.UserID)
		}
	})

	token, expiresIn, err := svc.Refresh(ctx, reg.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 60, expiresIn)
	sess, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, reg.Account.Profile.ID, sess.UserID)
	assert.Equal(t, []string{reg.Account.Profile.ID}, refreshed)

	_, _, err = svc.Refresh(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	_, _, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrTokenMissing)

	expired, err := utils.NewJWTManager(testJWT.Secret, testJWT.Issuer).
		GenerateToken(reg.Account.Profile.ID, nil, utils.TokenTypeRefresh, -time.Minute)
	require.NoError(t, err)
	_, _, err = svc.Refresh(ctx, expired)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestMe_CacheInvalidatedOnProfileUpdate(t *testing.T) {
	svc, _ := newService(t)
	reg, err := svc.Register(context.Background(), "mio@example.com", "password123", "Mio")
	require.NoError(t, err)
	ctx := session.WithSession(context.Background(), session.New(reg.Account.Profile.ID, []string{"creator"}))

	me, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Mio", me.Profile.DisplayName)

	name := "  Mio Sakura "
	_, err = svc.UpdateMe(ctx, ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)

	me, err = svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Mio Sakura", me.Profile.DisplayName)

	_, err = svc.Me(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogout_PublishesSignedOut(t *testing.T) {
	svc, events := newService(t)
	var got []session.Event
	events.Subscribe(func(_ context.Context, evt session.Event) { got = append(got, evt) })

	svc.Logout(context.Background())
	assert.Empty(t, got)

	svc.Logout(testutil.AsUser("00000000-0000-0000-0000-00000000000a"))
	require.Len(t, got, 1)
	assert.Equal(t, session.EventSignedOut, got[0].Type)
}
