package services

import (
	"context"
	"testing"
	"time"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/repositories/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse-battery"

// seedUser stores an active user with a bcrypt hash of testPassword
func seedUser(t *testing.T, users *mock.UserRepository, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		Name:         "Test User",
		Role:         role,
		Status:       models.UserStatusActive,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func newTestAuthService(t *testing.T, users *mock.UserRepository) *AuthService {
	t.Helper()
	auth, err := NewAuthService(users, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return auth
}

func TestNewAuthServiceRejectsShortSecret(t *testing.T) {
	_, err := NewAuthService(mock.NewUserRepository(), "short", time.Hour)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	users := mock.NewUserRepository()
	auth := newTestAuthService(t, users)
	user := seedUser(t, users, models.RoleAdmin)

	t.Run("success", func(t *testing.T) {
		token, loggedIn, err := auth.Login(context.Background(), user.Email, testPassword)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, user.ID, loggedIn.ID)

		claims, err := auth.VerifySessionToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, string(models.RoleAdmin), claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := auth.Login(context.Background(), user.Email, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := auth.Login(context.Background(), "nobody@example.com", testPassword)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("suspended account", func(t *testing.T) {
		suspended := seedUser(t, users, models.RoleCustomer)
		blocked := *suspended
		blocked.Status = models.UserStatusSuspended

		blockedUsers := mock.NewUserRepository()
		require.NoError(t, blockedUsers.Create(context.Background(), &blocked))
		blockedAuth := newTestAuthService(t, blockedUsers)

		_, _, err := blockedAuth.Login(context.Background(), blocked.Email, testPassword)
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestVerifySessionToken(t *testing.T) {
	users := mock.NewUserRepository()
	auth := newTestAuthService(t, users)
	user := seedUser(t, users, models.RoleWarehouseStaff)

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.VerifySessionToken("garbage")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewAuthService(users, "another-secret-value-of-32-chars!", time.Hour)
		require.NoError(t, err)
		token, err := other.GenerateSessionToken(user)
		require.NoError(t, err)

		_, err = auth.VerifySessionToken(token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		expiredAuth, err := NewAuthService(users, testJWTSecret, -time.Minute)
		require.NoError(t, err)
		token, err := expiredAuth.GenerateSessionToken(user)
		require.NoError(t, err)

		_, err = auth.VerifySessionToken(token)
		assert.ErrorIs(t, err, ErrSessionExpired)
	})
}

func TestSeedAdmin(t *testing.T) {
	users := mock.NewUserRepository()
	auth := newTestAuthService(t, users)

	admin, err := auth.SeedAdmin(context.Background(), "admin@example.com", "super-secret")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	// Second call is a no-op once an admin exists
	again, err := auth.SeedAdmin(context.Background(), "other@example.com", "super-secret")
	require.NoError(t, err)
	assert.Nil(t, again)

	_, err = auth.SeedAdmin(context.Background(), "x@example.com", "short")
	assert.Error(t, err)
}
