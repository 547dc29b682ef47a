package service

import (
	"context"
	"course_market_backend/internal/config"
	"course_market_backend/internal/model"
	"course_market_backend/internal/repository"
	"course_market_backend/internal/testutil"
	"course_market_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour}}
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, &RegisterRequest{
		Name:     "Grace",
		Email:    "Grace@Example.com",
		Password: "Passw0rdX",
		Role:     model.Creator,
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.NotEqual(t, "Passw0rdX", user.Password)

	resp, err := s.Login(ctx, &LoginRequest{Email: "grace@example.com", Password: "Passw0rdX"})
	require.NoError(t, err)

	claims, err := util.ParseJWT(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.Creator, claims.Role)
	assert.Equal(t, "Grace", claims.Name)

	_, err = s.Login(ctx, &LoginRequest{Email: "grace@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = s.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "Passw0rdX"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	profile, err := s.Profile(ctx, CallerFromClaims(claims))
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)
}

func TestRegisterDefaultsToLearner(t *testing.T) {
	s := newAuthService(t)
	user, err := s.Register(context.Background(), &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "Passw0rdX"})
	require.NoError(t, err)
	assert.Equal(t, model.Learner, user.Role)
}

func TestRegisterRejects(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "Passw0rdX"})
	require.NoError(t, err)

	_, err = s.Register(ctx, &RegisterRequest{Name: "Ada", Email: "ADA@example.com", Password: "Passw0rdX"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = s.Register(ctx, &RegisterRequest{Name: "Root", Email: "root@example.com", Password: "Passw0rdX", Role: model.Admin})
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")

	_, err = s.Register(ctx, &RegisterRequest{Name: "W", Email: "weak", Password: "weak"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestLoginBlockedUser(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, &RegisterRequest{Name: "Mallory", Email: "m@example.com", Password: "Passw0rdX"})
	require.NoError(t, err)
	require.NoError(t, s.UserRepo.DB.Model(user).Update("is_blocked", true).Error)

	_, err = s.Login(ctx, &LoginRequest{Email: "m@example.com", Password: "Passw0rdX"})
	assert.ErrorIs(t, err, util.ErrUserBlocked)
}

func TestProfileRequiresCaller(t *testing.T) {
	s := newAuthService(t)
	_, err := s.Profile(context.Background(), nil)
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	_, err = s.Profile(context.Background(), &Caller{ID: 999, Role: model.Learner})
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Passw0rdX"))
	assert.False(t, IsStrongPassword("Pa0x"))
	assert.False(t, IsStrongPassword("password1"))
	assert.False(t, IsStrongPassword("PASSWORD1"))
	assert.False(t, IsStrongPassword("Password"))
}

func TestEnsureAdmin(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	admin, created, err := s.EnsureAdmin(ctx, "Root", "root@example.com", "Adm1nPass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.Admin, admin.Role)

	resp, err := s.Login(ctx, &LoginRequest{Email: "root@example.com", Password: "Adm1nPass"})
	require.NoError(t, err)
	assert.Equal(t, model.Admin, resp.User.Role)

	learner, err := s.Register(ctx, &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "Passw0rdX"})
	require.NoError(t, err)
	promoted, created, err := s.EnsureAdmin(ctx, "Ada", "ada@example.com", "N3wPassword")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, learner.ID, promoted.ID)
	assert.Equal(t, model.Admin, promoted.Role)

	_, err = s.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "N3wPassword"})
	assert.NoError(t, err)

	_, _, err = s.EnsureAdmin(ctx, "X", "bad", "weak")
	var verr *util.ValidationError
	assert.ErrorAs(t, err, &verr)
}
