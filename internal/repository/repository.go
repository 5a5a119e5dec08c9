package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/construction-pm-api/internal/models"
)

// ErrResetCodeNotFound is returned when no live reset code exists for a user.
var ErrResetCodeNotFound = errors.New("reset code not found")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a user and links the given roles in one transaction
	Create(user *models.User, roles []models.Role) error

	// FindByID finds a user by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.User, error)

	// FindByUsername finds a user by username with roles preloaded
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email with roles preloaded
	FindByEmail(email string) (*models.User, error)

	// List returns every user with roles preloaded
	List() ([]models.User, error)

	// Search returns users where any of columns contains query, ignoring case
	Search(query string, columns ...string) ([]models.User, error)

	// ListByRole returns users holding role, ordered by full name
	ListByRole(role models.RoleName) ([]models.User, error)

	// Update saves scalar user fields
	Update(user *models.User) error

	// UpdateWithRoles saves scalar user fields and replaces the role links atomically
	UpdateWithRoles(user *models.User, roles []models.Role) error

	// ReplaceRoles removes every role link of the user and attaches roles
	ReplaceRoles(user *models.User, roles []models.Role) error

	// Delete removes the user, its role links and references to it
	Delete(id uint64) error
}

// RoleRepository defines the interface for role data access
type RoleRepository interface {
	// EnsureRoles creates any missing rows of the fixed role vocabulary
	EnsureRoles() error

	// FindByNames returns the stored roles for names
	FindByNames(names []models.RoleName) ([]models.Role, error)

	// List returns every stored role
	List() ([]models.Role, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// List retrieves projects with filtering and pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// Update saves scalar project fields
	Update(project *models.Project) error

	// Delete deletes a project and its tasks
	Delete(id uint64) error
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	ManagerID *uint64
	Status    *models.ProjectStatus
	Page      int
	PageSize  int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update saves scalar task fields
	Update(task *models.Task) error

	// Delete deletes a task
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID  *uint64
	AssigneeID *uint64
	Status     *models.TaskStatus
	Page       int
	PageSize   int
}

// ResetCodeStore keeps pending password reset codes
type ResetCodeStore interface {
	// Save stores codeHash for userID, replacing any previous code
	Save(ctx context.Context, userID uint64, codeHash string, ttl time.Duration) error

	// Fetch returns the live code hash for userID or ErrResetCodeNotFound
	Fetch(ctx context.Context, userID uint64) (string, error)

	// Delete removes the code for userID
	Delete(ctx context.Context, userID uint64) error
}
