package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret)

	token, err := tm.Issue("u1", "Alice", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Alice", claims.Label)
	assert.Equal(t, "u1", claims.Subject)
}

func TestVerifyExpiredToken(t *testing.T) {
	tm := NewTokenManager(testSecret)

	token, err := tm.Issue("u1", "Alice", -time.Minute)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret)
	other := NewTokenManager("ffffffffffffffffffffffffffffffff")

	token, err := other.Issue("u1", "Alice", time.Hour)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	tm := NewTokenManager(testSecret)

	_, err := tm.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiry(t *testing.T) {
	tm := NewTokenManager(testSecret)

	token, err := tm.Issue("u1", "Alice", time.Hour)
	require.NoError(t, err)

	exp, err := Expiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
}
