package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	token, err := Sign("user-1", "sess-1", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestParseRejects(t *testing.T) {
	expired, err := Sign("user-1", "", -time.Hour)
	require.NoError(t, err)
	_, err = Parse(expired)
	assert.ErrorIs(t, err, jwtlib.ErrTokenExpired)

	_, err = Parse("not-a-token")
	assert.Error(t, err)

	foreign, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwtlib.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = Parse(foreign)
	assert.ErrorIs(t, err, jwtlib.ErrTokenInvalidIssuer)

	anonymous, err := Sign("", "", time.Hour)
	require.NoError(t, err)
	_, err = Parse(anonymous)
	assert.ErrorIs(t, err, ErrNoSubject)
}
