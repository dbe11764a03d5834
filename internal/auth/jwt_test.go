package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neela-property/neela-server/internal/config"
	"github.com/neela-property/neela-server/internal/models"
)

func newTestManager() *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		SetupTokenTTL:   72 * time.Hour,
	})
}

func testUser() *models.User {
	tenantID := uuid.New()
	u := &models.User{
		Email:    "jane@example.com",
		IsAdmin:  false,
		TenantID: &tenantID,
	}
	u.ID = uuid.New()
	return u
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	m := newTestManager()
	user := testUser()

	access, refresh, err := m.GenerateTokenPair(user)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.TenantID, claims.TenantID)

	subject, err := m.RefreshSubject(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestSetupTokenIsNotAnAccessToken(t *testing.T) {
	m := newTestManager()
	user := testUser()

	setup, err := m.GenerateSetupToken(user)
	require.NoError(t, err)

	_, err = m.ValidateToken(setup)
	assert.Error(t, err)

	claims, err := m.ValidateSetupToken(setup)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAccessTokenIsNotASetupToken(t *testing.T) {
	m := newTestManager()

	access, _, err := m.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = m.ValidateSetupToken(access)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := newTestManager()

	access, _, err := m.GenerateTokenPair(testUser())
	require.NoError(t, err)

	other := NewJWTManager(&config.JWTConfig{Secret: "other-secret", AccessTokenTTL: time.Minute})
	_, err = other.ValidateToken(access)
	assert.Error(t, err)
}
