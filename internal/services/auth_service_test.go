package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/services"
)

func TestSignup_DefaultsToWorker(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.Signup(services.SignupInput{
		Username: "bob",
		Email:    "bob@x.io",
		Password: "secret1",
		FullName: "Bob Builder",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "secret1"))
	assert.Equal(t, []models.RoleName{models.RoleWorker}, f.reloadRoles(t, user.ID))
	assert.True(t, user.Active)
}

func TestSignup_NormalizesRequestedRoles(t *testing.T) {
	f := newFixture(t)

	for i, raw := range []string{"Admin", "ADMIN", "role_admin"} {
		user, err := f.auth.Signup(services.SignupInput{
			Username: []string{"alpha", "bravo", "charlie"}[i],
			Email:    []string{"a@x.io", "b@x.io", "c@x.io"}[i],
			Password: "secret1",
			FullName: "Someone",
			Roles:    []string{raw},
		})
		require.NoError(t, err, raw)
		assert.Equal(t, []models.RoleName{models.RoleAdmin}, f.reloadRoles(t, user.ID), raw)
	}
}

func TestSignup_Rejections(t *testing.T) {
	f := newFixture(t)
	f.user(t, "taken")

	tests := []struct {
		name  string
		input services.SignupInput
		want  error
	}{
		{
			name:  "unknown role",
			input: services.SignupInput{Username: "newbie", Email: "n@x.io", Password: "secret1", FullName: "N", Roles: []string{"administrator"}},
			want:  authz.ErrUnknownRole,
		},
		{
			name:  "duplicate username",
			input: services.SignupInput{Username: "taken", Email: "other@x.io", Password: "secret1", FullName: "T"},
			want:  services.ErrUsernameTaken,
		},
		{
			name:  "duplicate email",
			input: services.SignupInput{Username: "fresh", Email: "taken@example.com", Password: "secret1", FullName: "F"},
			want:  services.ErrEmailTaken,
		},
		{
			name:  "short password",
			input: services.SignupInput{Username: "fresh", Email: "f@x.io", Password: "123", FullName: "F"},
			want:  services.ErrPasswordTooShort,
		},
		{
			name:  "invalid email",
			input: services.SignupInput{Username: "fresh", Email: "not-an-email", Password: "secret1", FullName: "F"},
			want:  services.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Signup(tt.input)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignin(t *testing.T) {
	f := newFixture(t)
	user, _ := f.user(t, "alice", models.RoleManager, models.RoleWorker)

	result, err := f.auth.Signin(services.SigninInput{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.ElementsMatch(t, []string{"ROLE_MANAGER", "ROLE_WORKER"}, result.Authorities)

	claims, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = f.auth.Signin(services.SigninInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = f.auth.Signin(services.SigninInput{Username: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestSignin_InactiveAccount(t *testing.T) {
	f := newFixture(t)
	user, _ := f.user(t, "sleepy", models.RoleWorker)
	require.NoError(t, f.db.Model(user).Update("active", false).Error)

	_, err := f.auth.Signin(services.SigninInput{Username: "sleepy", Password: "password1"})
	assert.ErrorIs(t, err, services.ErrAccountDisabled)
}

func TestRefreshToken(t *testing.T) {
	f := newFixture(t)
	user, _ := f.user(t, "alice", models.RoleWorker)

	expired := auth.NewTokenManager(testSecret, -time.Minute)
	old, oldExpiry, err := expired.Issue(user.ID)
	require.NoError(t, err)

	_, err = f.tokens.Verify(old)
	require.ErrorIs(t, err, auth.ErrTokenExpired)

	refreshed, err := f.auth.RefreshToken(old)
	require.NoError(t, err)
	assert.True(t, refreshed.ExpiresAt.After(oldExpiry))

	claims, err := f.tokens.Verify(refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefreshToken_Rejections(t *testing.T) {
	f := newFixture(t)
	user, _ := f.user(t, "alice", models.RoleWorker)

	token, _, err := f.tokens.Issue(user.ID)
	require.NoError(t, err)

	_, err = f.auth.RefreshToken("")
	assert.ErrorIs(t, err, services.ErrMissingToken)

	_, err = f.auth.RefreshToken(token + "x")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	forged, _, err := auth.NewTokenManager("other-secret", time.Hour).Issue(user.ID)
	require.NoError(t, err)
	_, err = f.auth.RefreshToken(forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	orphan, _, err := f.tokens.Issue(user.ID + 100)
	require.NoError(t, err)
	_, err = f.auth.RefreshToken(orphan)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice", models.RoleWorker)

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "alice@example.com"))
	code := f.mailer.code("alice@example.com")
	require.Len(t, code, 6)

	err := f.auth.ResetPassword(ctx, services.ResetPasswordInput{
		Email:       "alice@example.com",
		Code:        code,
		NewPassword: "brand-new",
	})
	require.NoError(t, err)

	_, err = f.auth.Signin(services.SigninInput{Username: "alice", Password: "brand-new"})
	require.NoError(t, err)

	// codes are single use
	err = f.auth.ResetPassword(ctx, services.ResetPasswordInput{
		Email:       "alice@example.com",
		Code:        code,
		NewPassword: "another1",
	})
	assert.ErrorIs(t, err, services.ErrInvalidResetCode)
}

func TestPasswordReset_WrongCodeInvalidatesPendingCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice", models.RoleWorker)

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "alice@example.com"))
	code := f.mailer.code("alice@example.com")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err := f.auth.ResetPassword(ctx, services.ResetPasswordInput{Email: "alice@example.com", Code: wrong, NewPassword: "brand-new"})
	require.ErrorIs(t, err, services.ErrInvalidResetCode)

	err = f.auth.ResetPassword(ctx, services.ResetPasswordInput{Email: "alice@example.com", Code: code, NewPassword: "brand-new"})
	assert.ErrorIs(t, err, services.ErrInvalidResetCode)

	_, err = f.auth.Signin(services.SigninInput{Username: "alice", Password: "password1"})
	assert.NoError(t, err)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.auth.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	input := services.AdminBootstrap{
		Username: "root",
		Email:    "root@example.com",
		Password: "bootstrap1",
		FullName: "Root",
	}

	created, err := f.auth.EnsureAdmin(input)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.auth.EnsureAdmin(input)
	require.NoError(t, err)
	assert.False(t, created)

	result, err := f.auth.Signin(services.SigninInput{Username: "root", Password: "bootstrap1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_ADMIN"}, result.Authorities)

	created, err = f.auth.EnsureAdmin(services.AdminBootstrap{Username: "other"})
	require.NoError(t, err)
	assert.False(t, created)
}
