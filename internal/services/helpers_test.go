package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/services"
	"github.com/yukikurage/construction-pm-api/internal/storage"
	"github.com/yukikurage/construction-pm-api/internal/testutil"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// recordingMailer keeps the last code sent to each address.
type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{codes: map[string]string{}}
}

func (m *recordingMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *recordingMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type fixture struct {
	db       *gorm.DB
	tokens   *auth.TokenManager
	mailer   *recordingMailer
	auth     *services.AuthService
	users    *services.UserService
	projects *services.ProjectService
	tasks    *services.TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	files := storage.NewLocalStore(t.TempDir(), "/uploads")

	f := &fixture{
		db:     db,
		tokens: auth.NewTokenManager(testSecret, time.Hour),
		mailer: newRecordingMailer(),
	}
	f.auth = services.NewAuthService(userRepo, roleRepo, f.tokens, repository.NewResetCodeStore(db), f.mailer, 15*time.Minute)
	f.users = services.NewUserService(userRepo, roleRepo, files, 1024)
	f.projects = services.NewProjectService(projectRepo, userRepo)
	f.tasks = services.NewTaskService(taskRepo, projectRepo, userRepo, files, 1024)
	return f
}

func (f *fixture) user(t *testing.T, username string, roles ...models.RoleName) (*models.User, authz.Actor) {
	t.Helper()
	user := testutil.CreateUser(t, f.db, username, roles...)
	return user, authz.NewActor(user)
}

func (f *fixture) reloadRoles(t *testing.T, id uint64) []models.RoleName {
	t.Helper()
	user, err := f.auth.GetUser(id)
	require.NoError(t, err)
	return user.RoleNames()
}
