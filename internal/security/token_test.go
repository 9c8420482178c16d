package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolshed-backend/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret)
	actor := domain.Actor{UserID: 42, Role: domain.UserRoleMember}

	token, err := m.GenerateToken(actor, time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, claims.Actor())
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager(testSecret).(*tokenManager)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken(domain.Actor{UserID: 1, Role: domain.UserRoleAdmin}, time.Hour)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_Invalid(t *testing.T) {
	m := NewTokenManager(testSecret)

	other, err := NewTokenManager("another-secret-another-secret-xx").GenerateToken(domain.Actor{UserID: 1, Role: domain.UserRoleAdmin}, time.Hour)
	require.NoError(t, err)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, ActorClaims{
		UserID: 1,
		Role:   "OWNER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badRole, err := unknownRole.SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongAudience := jwt.NewWithClaims(jwt.SigningMethodHS256, ActorClaims{
		UserID: 1,
		Role:   domain.UserRoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{"somewhere-else"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badAudience, err := wrongAudience.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Garbage", "not-a-jwt"},
		{"Wrong secret", other},
		{"Unknown role", badRole},
		{"Wrong audience", badAudience},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
