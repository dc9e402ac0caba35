package auth_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mazraa/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.GenerateToken("sess-1")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "mazraa", claims.Issuer)
}

func TestEmptySessionRejected(t *testing.T) {
	_, err := auth.GenerateToken("")
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	tok, err := auth.GenerateToken("sess-1")
	require.NoError(t, err)

	_, err = auth.ValidateToken(tok + "x")
	assert.Error(t, err)
}

func TestForeignKeyRejected(t *testing.T) {
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{SessionID: "sess-1"})
	tok, err := other.SignedString([]byte("not-the-secret"))
	require.NoError(t, err)

	_, err = auth.ValidateToken(tok)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, auth.CheckPassword(hash, "secret123"))
	assert.False(t, auth.CheckPassword(hash, "secret124"))
}

func TestCheckPasswordWithoutHashFails(t *testing.T) {
	assert.False(t, auth.CheckPassword("", ""))
	assert.False(t, auth.CheckPassword("", "mazraa:no-account"))
}
