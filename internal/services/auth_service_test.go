package services

import (
	"context"
	"testing"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/ecocropai/ecocrop-backend/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T, ttl time.Duration) (*AuthService, *UserService) {
	t.Helper()
	users := NewUserService(newTestDB(t))
	auth := NewAuthService(users, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: ttl})
	return auth, users
}

func TestIssueAndAuthenticate(t *testing.T) {
	auth, users := newAuthFixture(t, time.Hour)

	user, err := users.Register(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	token, err := auth.IssueToken(user.ID, user.Email)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, user.Email, resolved.Email)
}

func TestAuthenticateNeverResolvesAnotherUser(t *testing.T) {
	auth, users := newAuthFixture(t, time.Hour)

	userA, err := users.Register(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)
	userB, err := users.Register(context.Background(), "b@x.com", "B", "p2")
	require.NoError(t, err)

	token, err := auth.IssueToken(userA.ID, userA.Email)
	require.NoError(t, err)

	resolved, err := auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userA.ID, resolved.ID)
	assert.NotEqual(t, userB.ID, resolved.ID)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	auth, users := newAuthFixture(t, -time.Hour)

	user, err := users.Register(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	token, err := auth.IssueToken(user.ID, user.Email)
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestAuthenticateMalformedToken(t *testing.T) {
	auth, _ := newAuthFixture(t, time.Hour)

	_, err := auth.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	auth, users := newAuthFixture(t, time.Hour)

	user, err := users.Register(context.Background(), "a@x.com", "A", "p1")
	require.NoError(t, err)

	other := NewAuthService(users, config.AuthConfig{JWTSecret: "different-secret", TokenTTL: time.Hour})
	token, err := other.IssueToken(user.ID, user.Email)
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	auth, _ := newAuthFixture(t, time.Hour)

	// Valid token whose subject no longer exists in the store
	token, err := auth.IssueToken(uuid.NewString(), "ghost@x.com")
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnknownUser)
}
