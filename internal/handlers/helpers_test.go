package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/config"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/notify"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/router"
	"github.com/yukikurage/construction-pm-api/internal/services"
	"github.com/yukikurage/construction-pm-api/internal/storage"
	"github.com/yukikurage/construction-pm-api/internal/testutil"
	"github.com/yukikurage/construction-pm-api/internal/validation"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
}

type testServer struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	engine *gin.Engine
}

func newTestServer(t *testing.T, opts ...func(*router.Dependencies)) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	logger, _ := test.NewNullLogger()
	uploadDir := t.TempDir()

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	files := storage.NewLocalStore(uploadDir, "/uploads")
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	deps := router.Dependencies{
		Logger:    logger,
		CORS:      config.CORSConfig{Origins: []string{"*"}},
		UploadDir: uploadDir,
		Tokens:    tokens,
		Users:     userRepo,
		AuthService: services.NewAuthService(
			userRepo, roleRepo, tokens,
			repository.NewResetCodeStore(db), notify.NewLogMailer(logger), 15*time.Minute,
		),
		UserService:    services.NewUserService(userRepo, roleRepo, files, 1024),
		ProjectService: services.NewProjectService(projectRepo, userRepo),
		TaskService:    services.NewTaskService(taskRepo, projectRepo, userRepo, files, 1024),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	engine := router.Setup(deps)

	return &testServer{db: db, tokens: tokens, engine: engine}
}

// login creates a user with the given roles and returns it with a valid token.
func (s *testServer) login(t *testing.T, username string, roles ...models.RoleName) (*models.User, string) {
	t.Helper()

	user := testutil.CreateUser(t, s.db, username, roles...)
	token, _, err := s.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(constants.TokenHeader, token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, path, token, field, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(constants.TokenHeader, token)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()

	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
