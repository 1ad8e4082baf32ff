package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_PairRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "anime-forge")

	pair, err := m.GenerateTokenPair("u1", []string{"creator"}, time.Minute, time.Hour)
	require.NoError(t, err)

	access, err := m.ParseAs(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", access.UserID())
	assert.Equal(t, []string{"creator"}, access.Roles)
	assert.NotEmpty(t, access.ID)

	refresh, err := m.ParseAs(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Empty(t, refresh.Roles)
	assert.NotEqual(t, access.ID, refresh.ID)

	_, err = m.ParseAs(pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", "anime-forge")

	expired, err := m.GenerateToken("u1", nil, TokenTypeAccess, -time.Minute)
	require.NoError(t, err)
	_, err = m.ParseToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other, err := NewJWTManager("secret", "someone-else").GenerateToken("u1", nil, TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	_, err = m.ParseToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, err := NewJWTManager("other-secret", "anime-forge").GenerateToken("u1", nil, TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	_, err = m.ParseToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "anime-forge",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.ParseToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ToleratesSmallSkew(t *testing.T) {
	m := NewJWTManager("secret", "anime-forge")
	base := time.Now()
	m.now = func() time.Time { return base }

	tok, err := m.GenerateToken("u1", nil, TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(time.Minute + 2*time.Second) }
	_, err = m.ParseToken(tok)
	assert.NoError(t, err)

	m.now = func() time.Time { return base.Add(time.Minute + time.Hour) }
	_, err = m.ParseToken(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
