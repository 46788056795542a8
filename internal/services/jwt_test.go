package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, err := svc.GenerateToken(42, "alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, time.Hour.Seconds(), claims.RemainingLifetime().Seconds(), 5)
	assert.Equal(t, time.Hour, svc.Expiry())
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	first, err := svc.GenerateToken(1, "alice")
	require.NoError(t, err)
	second, err := svc.GenerateToken(1, "alice")
	require.NoError(t, err)

	a, err := svc.ValidateToken(first)
	require.NoError(t, err)
	b, err := svc.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	other, err := NewJWTService("other-secret", time.Hour).GenerateToken(1, "alice")
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.Error(t, err)

	expired, err := NewJWTService("secret", -time.Minute).GenerateToken(1, "alice")
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err)

	_, err = svc.ValidateToken("garbage")
	assert.Error(t, err)
}
