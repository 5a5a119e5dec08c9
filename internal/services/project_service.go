package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/patch"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrManagerNotFound   = errors.New("manager not found")
	ErrIneligibleManager = errors.New("project manager must hold the manager or admin role")
	ErrNameRequired      = errors.New("name is required")
)

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	Status   *models.ProjectStatus
	Page     int
	PageSize int
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name          string
	Description   string
	Status        models.ProjectStatus
	StartDate     *time.Time
	EndDate       *time.Time
	Location      string
	Budget        *float64
	ClientName    string
	ClientContact string
	ManagerID     *uint64
}

// ProjectPatch represents a partial project update
type ProjectPatch struct {
	Name          patch.Field[string]               `json:"name"`
	Description   patch.Field[string]               `json:"description"`
	Status        patch.Field[models.ProjectStatus] `json:"status"`
	StartDate     patch.Field[patch.Date]           `json:"startDate"`
	EndDate       patch.Field[patch.Date]           `json:"endDate"`
	Location      patch.Field[string]               `json:"location"`
	Budget        patch.Field[float64]              `json:"budget"`
	ClientName    patch.Field[string]               `json:"clientName"`
	ClientContact patch.Field[string]               `json:"clientContact"`
	ManagerID     patch.Field[uint64]               `json:"managerId"`
}

// ListProjects returns projects matching the filters
func (s *ProjectService) ListProjects(input ListProjectsInput) ([]models.Project, int64, error) {
	projects, total, err := s.projectRepo.List(repository.ProjectFilter{
		Status:   input.Status,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// ListMyProjects returns projects managed by the actor
func (s *ProjectService) ListMyProjects(actor authz.Actor) ([]models.Project, error) {
	if !authz.IsManagerOrAdmin(actor, nil) {
		return nil, authz.ErrManagerRequired
	}

	projects, _, err := s.projectRepo.List(repository.ProjectFilter{ManagerID: &actor.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project with its manager and tasks
func (s *ProjectService) GetProject(id uint64) (*models.Project, error) {
	return s.findProject(id, "Manager", "Tasks", "Tasks.Assignee")
}

func (s *ProjectService) findProject(id uint64, preload ...string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// CreateProject creates a project. Only admins may create projects; the
// creator manages it unless another manager is named.
func (s *ProjectService) CreateProject(actor authz.Actor, input CreateProjectInput) (*models.Project, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusActive
	}
	if !input.Status.Valid() {
		return nil, invalidInput("unknown project status %q", input.Status)
	}
	if input.Budget != nil && *input.Budget < 0 {
		return nil, invalidInput("budget cannot be negative")
	}
	if err := validateDateRange(input.StartDate, input.EndDate, "end date"); err != nil {
		return nil, err
	}

	managerID := actor.UserID
	if input.ManagerID != nil && *input.ManagerID != actor.UserID {
		if err := s.checkManagerCandidate(*input.ManagerID); err != nil {
			return nil, err
		}
		managerID = *input.ManagerID
	}

	project := &models.Project{
		Name:          name,
		Description:   input.Description,
		Status:        input.Status,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Location:      input.Location,
		Budget:        input.Budget,
		ClientName:    input.ClientName,
		ClientContact: input.ClientContact,
		ManagerID:     &managerID,
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.findProject(project.ID, "Manager")
}

// UpdateProject applies a partial update on behalf of the manager-of-record or an admin
func (s *ProjectService) UpdateProject(actor authz.Actor, id uint64, input ProjectPatch) (*models.Project, error) {
	project, err := s.findProject(id)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckManageProject(project, actor); err != nil {
		return nil, err
	}

	if err := applyRequired(input.Name, &project.Name, "name"); err != nil {
		return nil, err
	}
	project.Name = strings.TrimSpace(project.Name)
	if project.Name == "" {
		return nil, ErrNameRequired
	}
	if err := applyRequired(input.Description, &project.Description, "description"); err != nil {
		return nil, err
	}
	if err := applyRequired(input.Status, &project.Status, "status"); err != nil {
		return nil, err
	}
	if !project.Status.Valid() {
		return nil, invalidInput("unknown project status %q", project.Status)
	}
	applyNullable(patch.DateField(input.StartDate), &project.StartDate)
	applyNullable(patch.DateField(input.EndDate), &project.EndDate)
	if err := validateDateRange(project.StartDate, project.EndDate, "end date"); err != nil {
		return nil, err
	}
	if err := applyRequired(input.Location, &project.Location, "location"); err != nil {
		return nil, err
	}
	applyNullable(input.Budget, &project.Budget)
	if project.Budget != nil && *project.Budget < 0 {
		return nil, invalidInput("budget cannot be negative")
	}
	if err := applyRequired(input.ClientName, &project.ClientName, "clientName"); err != nil {
		return nil, err
	}
	if err := applyRequired(input.ClientContact, &project.ClientContact, "clientContact"); err != nil {
		return nil, err
	}
	if input.ManagerID.Set {
		if input.ManagerID.Value == nil {
			return nil, invalidInput("managerId cannot be null")
		}
		if !project.IsManagedBy(*input.ManagerID.Value) {
			if err := s.checkManagerCandidate(*input.ManagerID.Value); err != nil {
				return nil, err
			}
			project.ManagerID = input.ManagerID.Value
		}
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.findProject(project.ID, "Manager")
}

// DeleteProject deletes a project and its tasks
func (s *ProjectService) DeleteProject(actor authz.Actor, id uint64) error {
	project, err := s.findProject(id)
	if err != nil {
		return err
	}
	if err := authz.CanDeleteProject(project, actor); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *ProjectService) checkManagerCandidate(userID uint64) error {
	user, err := s.userRepo.FindByID(userID, "Roles")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrManagerNotFound
		}
		return fmt.Errorf("failed to find manager: %w", err)
	}
	if !authz.IsManagerOrAdmin(authz.NewActor(user), nil) {
		return ErrIneligibleManager
	}
	return nil
}
