package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)

	token, expiresAt, err := tm.GenerateToken("user-1", "tenant-1", "branch-1", "dept-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, "branch-1", claims.BranchID)
	assert.Equal(t, "dept-1", claims.DepartmentID)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 5).GenerateToken("user-1", "tenant-1", "", "")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenWithoutTenantRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)
	token, _, err := tm.GenerateToken("user-1", "", "", "")
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}
