package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	InitAuthService(testSecret, time.Hour)

	token, err := GenerateToken("bench-node-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bench-node-1", claims.AgentName)
	assert.Equal(t, "fastpath-server", claims.Issuer)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestTamperedTokenRejected(t *testing.T) {
	InitAuthService(testSecret, time.Hour)

	token, err := GenerateToken("bench-node-1")
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)

	_, err = ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestTokenFromDifferentKeyRejected(t *testing.T) {
	InitAuthService(testSecret, time.Hour)
	token, err := GenerateToken("bench-node-1")
	require.NoError(t, err)

	InitAuthService("another-secret-key-32-bytes-long", time.Hour)
	_, err = ValidateToken(token)
	assert.Error(t, err)
}
