package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/router"
	"github.com/yukikurage/construction-pm-api/internal/testutil"
)

func TestAuthHandler_Signup(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "supersecret",
		"fullName": "New User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "User registered successfully", body["message"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "newuser", user["username"])
	assert.Equal(t, []any{"worker"}, user["roles"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
}

func TestAuthHandler_SignupRejections(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateUser(t, srv.db, "taken", models.RoleWorker)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{
			name:   "missing email",
			body:   map[string]any{"username": "someone", "password": "supersecret", "fullName": "Some One"},
			status: http.StatusBadRequest,
			code:   "MISSING_FIELD",
		},
		{
			name:   "malformed body",
			body:   `{"username":`,
			status: http.StatusBadRequest,
			code:   "INVALID_FORMAT",
		},
		{
			name:   "wrong field type",
			body:   `{"username": 42, "email": "someone@example.com", "password": "supersecret", "fullName": "Some One"}`,
			status: http.StatusBadRequest,
			code:   "INVALID_FORMAT",
		},
		{
			name:   "invalid email",
			body:   map[string]any{"username": "someone", "email": "nope", "password": "supersecret", "fullName": "Some One"},
			status: http.StatusBadRequest,
			code:   "INVALID_INPUT",
		},
		{
			name:   "short password",
			body:   map[string]any{"username": "someone", "email": "someone@example.com", "password": "short", "fullName": "Some One"},
			status: http.StatusBadRequest,
		},
		{
			name:   "duplicate username",
			body:   map[string]any{"username": "taken", "email": "other@example.com", "password": "supersecret", "fullName": "Taken"},
			status: http.StatusBadRequest,
			code:   "ALREADY_EXISTS",
		},
		{
			name:   "unknown role",
			body:   map[string]any{"username": "someone", "email": "someone@example.com", "password": "supersecret", "fullName": "Some One", "roles": []string{"superuser"}},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode(t, w)["code"])
			}
		})
	}
}

func TestAuthHandler_Signin(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateUser(t, srv.db, "foreman", models.RoleManager, models.RoleWorker)

	w := srv.do(t, http.MethodPost, "/api/auth/signin", "", map[string]any{
		"username": "foreman",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "foreman", body["username"])
	assert.ElementsMatch(t, []any{"ROLE_MANAGER", "ROLE_WORKER"}, body["roles"])
	require.NotEmpty(t, body["accessToken"])

	claims, err := srv.tokens.Verify(body["accessToken"].(string))
	require.NoError(t, err)
	assert.NotZero(t, claims.UserID)
}

func TestAuthHandler_SigninWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateUser(t, srv.db, "foreman", models.RoleManager)

	w := srv.do(t, http.MethodPost, "/api/auth/signin", "", map[string]any{
		"username": "foreman",
		"password": "not-the-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body := decode(t, w)
	assert.Contains(t, body, "accessToken")
	assert.Nil(t, body["accessToken"])
	assert.Equal(t, "Invalid Password!", body["message"])
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	srv := newTestServer(t)
	user := testutil.CreateUser(t, srv.db, "worker", models.RoleWorker)

	expired, oldExpiry, err := auth.NewTokenManager(testSecret, -time.Minute).Issue(user.ID)
	require.NoError(t, err)

	t.Run("expired token from header", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/auth/refresh-token", expired, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		require.NotEmpty(t, body["accessToken"])
		expiry, err := time.Parse(time.RFC3339Nano, body["tokenExpiry"].(string))
		require.NoError(t, err)
		assert.True(t, expiry.After(oldExpiry))

		_, err = srv.tokens.Verify(body["accessToken"].(string))
		assert.NoError(t, err)
	})

	t.Run("token from body", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]any{"refreshToken": expired})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("corrupted signature", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/auth/refresh-token", expired+"x", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, auth.ErrInvalidToken.Error(), decode(t, w)["error"])
	})

	t.Run("no token", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/auth/refresh-token", "", nil)
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "No token provided", decode(t, w)["message"])
	})
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	srv := newTestServer(t)
	user := testutil.CreateUser(t, srv.db, "worker", models.RoleWorker)

	w := srv.do(t, http.MethodPost, "/api/auth/reset-password/request", "", map[string]any{"email": user.Email})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the delivered code is only known to the mailer; a guess must fail
	w = srv.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]any{
		"email":       user.Email,
		"code":        "000000x",
		"newPassword": "brand-new-secret",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := repository.NewResetCodeStore(srv.db).Fetch(context.Background(), user.ID)
	assert.ErrorIs(t, err, repository.ErrResetCodeNotFound)
	assert.Empty(t, stored)
}

func TestAuthHandler_ProtectedRouteWithoutToken(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/user/profile", "", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "No token provided", decode(t, w)["message"])
}

func TestAuthHandler_ProtectedRouteWithExpiredToken(t *testing.T) {
	srv := newTestServer(t)
	user := testutil.CreateUser(t, srv.db, "worker", models.RoleWorker)

	expired, _, err := auth.NewTokenManager(testSecret, -time.Minute).Issue(user.ID)
	require.NoError(t, err)

	w := srv.do(t, http.MethodGet, "/api/user/profile", expired, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "jwt expired", decode(t, w)["error"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestHealth_BackingStoreDown(t *testing.T) {
	srv := newTestServer(t, func(deps *router.Dependencies) {
		deps.Ping = func(ctx context.Context) error {
			return errors.New("connection refused")
		}
	})

	w := srv.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decode(t, w)["code"])
}
