package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lms-insight-api/internal/models"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

type stubUserRepo struct {
	user            *models.User
	lastLoginSet    bool
	updatedPassword string
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return r.user, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return r.user, nil
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	r.lastLoginSet = true
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, _ string, passwordHash string, _ time.Time) error {
	r.updatedPassword = passwordHash
	return nil
}

func newAuthFixture(t *testing.T, password string) (*AuthService, *stubUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubUserRepo{user: &models.User{
		ID:           "user-1",
		Email:        "instructor@example.edu",
		PasswordHash: string(hash),
		FullName:     "Dr. Sharma",
		Role:         models.RoleInstructor,
		Active:       true,
	}}
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "lms-insight-api",
	})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t, "correct-horse-1")

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "instructor@example.edu",
		Password: "correct-horse-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, models.RoleInstructor, resp.User.Role)
	assert.True(t, repo.lastLoginSet)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleInstructor, claims.Role)
	assert.Equal(t, "lms-insight-api", claims.Issuer)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, "correct-horse-1")

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "instructor@example.edu",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t, "correct-horse-1")

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.edu",
		Password: "correct-horse-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t, "correct-horse-1")
	repo.user.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "instructor@example.edu",
		Password: "correct-horse-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	svc, _ := newAuthFixture(t, "correct-horse-1")

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestChangePassword(t *testing.T) {
	svc, repo := newAuthFixture(t, "correct-horse-1")

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "correct-horse-1",
		NewPassword: "battery-staple-2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, repo.updatedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updatedPassword), []byte("battery-staple-2")))
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	svc, repo := newAuthFixture(t, "correct-horse-1")

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "wrong-password",
		NewPassword: "battery-staple-2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updatedPassword)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t, "correct-horse-1")

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "instructor@example.edu",
		Password: "correct-horse-1",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
