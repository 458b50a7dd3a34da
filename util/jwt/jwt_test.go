package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("secret", "user-1", "u@example.com", "USER", 1)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := Parse(tok, "secret")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims["sub"])
	require.Equal(t, "USER", claims["role"])
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := Issue("secret", "user-1", "u@example.com", "USER", 1)
	require.NoError(t, err)

	_, err = Parse(tok, "other-secret")
	require.Error(t, err)
}

func TestRemainingTTL(t *testing.T) {
	tok, err := Issue("secret", "user-1", "u@example.com", "USER", 2)
	require.NoError(t, err)

	ttl, err := RemainingTTL(tok, time.Now())
	require.NoError(t, err)
	require.Greater(t, ttl, time.Hour)
	require.LessOrEqual(t, ttl, 2*time.Hour)
}

func TestRemainingTTL_Expired(t *testing.T) {
	tok, err := Issue("secret", "user-1", "u@example.com", "USER", 1)
	require.NoError(t, err)

	_, err = RemainingTTL(tok, time.Now().Add(3*time.Hour))
	require.Error(t, err)
}

func TestRemainingTTL_Garbage(t *testing.T) {
	_, err := RemainingTTL("not-a-jwt", time.Now())
	require.Error(t, err)
}
