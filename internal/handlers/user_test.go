package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/testutil"
)

func TestUserHandler_Profile(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.login(t, "wanda", models.RoleWorker)

	w := srv.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wanda@example.com", decode(t, w)["email"])

	w = srv.do(t, http.MethodPut, "/api/user/profile", token, map[string]any{"fullName": "Wanda Maximoff"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Wanda Maximoff", decode(t, w)["fullName"])

	w = srv.do(t, http.MethodPut, "/api/user/profile", token, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_UploadProfileImage(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.login(t, "wanda", models.RoleWorker)

	w := srv.upload(t, "/api/user/profile/image", token, "image", "me.png", "image/png", []byte("\x89PNG"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	location := decode(t, w)["profileImage"].(string)
	assert.True(t, strings.HasPrefix(location, "/uploads/"))

	w = srv.do(t, http.MethodGet, location, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.upload(t, "/api/user/profile/image", token, "image", "me.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.upload(t, "/api/user/profile/image", token, "file", "me.png", "image/png", []byte("\x89PNG"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_CheckToken(t *testing.T) {
	srv := newTestServer(t)
	user, token := srv.login(t, "marta", models.RoleManager, models.RoleWorker)

	w := srv.do(t, http.MethodGet, "/api/user/check-token", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.EqualValues(t, user.ID, body["userId"])
	assert.ElementsMatch(t, []any{"ROLE_MANAGER", "ROLE_WORKER"}, body["roles"])
}

func TestUserHandler_Workers(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.login(t, "marta", models.RoleManager)
	testutil.CreateUser(t, srv.db, "wanda", models.RoleWorker)
	testutil.CreateUser(t, srv.db, "walter", models.RoleWorker)

	w := srv.do(t, http.MethodGet, "/api/workers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 2)

	w = srv.do(t, http.MethodGet, "/api/workers/search?query=walt", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	workers := decodeList(t, w)
	require.Len(t, workers, 1)
	assert.Equal(t, "walter", workers[0]["username"])

	w = srv.do(t, http.MethodGet, "/api/workers/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodOptions, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
