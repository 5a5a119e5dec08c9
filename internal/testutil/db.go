// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/database"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Uint64

// NewDB opens a private in-memory sqlite database, migrates it and seeds the
// role vocabulary. The database is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	require.NoError(t, repository.NewRoleRepository(db).EnsureRoles())

	return db
}

// CreateUser inserts a user with the given roles and password "password1".
func CreateUser(t testing.TB, db *gorm.DB, username string, roles ...models.RoleName) *models.User {
	t.Helper()

	digest, err := auth.HashPassword("password1")
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: digest,
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		Active:       true,
	}

	var stored []models.Role
	if len(roles) > 0 {
		require.NoError(t, db.Where("name IN ?", roles).Find(&stored).Error)
		require.Len(t, stored, len(roles))
	}
	require.NoError(t, repository.NewUserRepository(db).Create(user, stored))
	user.Roles = stored

	return user
}

// CreateProject inserts a project managed by managerID.
func CreateProject(t testing.TB, db *gorm.DB, name string, managerID uint64) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:      name,
		Status:    models.ProjectStatusActive,
		ManagerID: &managerID,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateTask inserts a planned task in projectID, optionally assigned.
func CreateTask(t testing.TB, db *gorm.DB, title string, projectID uint64, assigneeID *uint64) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:       title,
		Status:      models.TaskStatusPlanned,
		Priority:    models.TaskPriorityMedium,
		ProjectID:   projectID,
		AssigneeID:  assigneeID,
		Attachments: []models.Attachment{},
	}
	require.NoError(t, db.Omit("Project", "Assignee").Create(task).Error)
	return task
}
