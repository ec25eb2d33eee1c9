package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
)

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name           string
		accessSecret   string
		accessMinutes  int
		refreshMinutes int
	}{
		{
			name:           "valid parameters",
			accessSecret:   "access-secret-key",
			accessMinutes:  15,
			refreshMinutes: 10080,
		},
		{
			name:           "empty secret",
			accessSecret:   "",
			accessMinutes:  30,
			refreshMinutes: 2880,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTokenService(tt.accessSecret, tt.accessMinutes, tt.refreshMinutes)

			assert.NotNil(t, ts)
			assert.Equal(t, tt.accessSecret, ts.AccessTokenSecret)
			assert.Equal(t, time.Duration(tt.accessMinutes)*time.Minute, ts.AccessTokenExpiry)
			assert.Equal(t, time.Duration(tt.refreshMinutes)*time.Minute, ts.RefreshTokenExpiry)
			assert.Equal(t, ts.AccessTokenExpiry, ts.AccessTokenTTL())
			assert.Equal(t, ts.RefreshTokenExpiry, ts.RefreshTokenTTL())
		})
	}
}

func TestTokenService_IssueAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		email  string
		role   domain.Role
	}{
		{
			name:   "admin token",
			userID: "user-123",
			email:  "admin@example.com",
			role:   domain.RoleAdmin,
		},
		{
			name:   "viewer token",
			userID: "user-456",
			email:  "viewer@example.com",
			role:   domain.RoleViewer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTokenService("test-secret", 15, 10080)

			signed, expiresAt, err := ts.IssueAccessToken(tt.userID, tt.email, tt.role)
			require.NoError(t, err)
			require.NotEmpty(t, signed)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 2*time.Second)

			claims, err := ts.VerifyAccessToken(signed)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestTokenService_IssueRefreshToken(t *testing.T) {
	ts := NewTokenService("test-secret", 15, 10080)

	token, tokenHash, expiresAt, err := ts.IssueRefreshToken()
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	assert.Len(t, token, 64)
	assert.Equal(t, HashToken(token), tokenHash)
	assert.NotEqual(t, token, tokenHash)
	assert.WithinDuration(t, time.Now().Add(10080*time.Minute), expiresAt, 2*time.Second)

	// Subsequent tokens must not repeat.
	token2, _, _, err := ts.IssueRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestTokenService_VerifyAccessToken(t *testing.T) {
	ts := NewTokenService("test-secret", 15, 10080)

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewTokenService("other-secret", 15, 10080)
		signed, _, err := other.IssueAccessToken("user-123", "a@b.com", domain.RoleViewer)
		require.NoError(t, err)

		_, err = ts.VerifyAccessToken(signed)
		assert.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewTokenService("test-secret", -1, 10080)
		signed, _, err := expired.IssueAccessToken("user-123", "a@b.com", domain.RoleViewer)
		require.NoError(t, err)

		_, err = ts.VerifyAccessToken(signed)
		assert.Error(t, err)
	})

	t.Run("rejects non-HMAC signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.VerifyAccessToken(signed)
		assert.Error(t, err)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		_, err := ts.VerifyAccessToken("not-a-token")
		assert.Error(t, err)
	})
}
