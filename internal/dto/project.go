package dto

import (
	"time"

	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/utils"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID            uint64               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Status        models.ProjectStatus `json:"status"`
	StartDate     *time.Time           `json:"startDate"`
	EndDate       *time.Time           `json:"endDate"`
	Location      string               `json:"location"`
	Budget        *float64             `json:"budget"`
	ClientName    string               `json:"clientName"`
	ClientContact string               `json:"clientContact"`
	ManagerID     *uint64              `json:"managerId"`
	Manager       *UserSummaryDTO      `json:"manager,omitempty"`
	Tasks         []TaskDTO            `json:"tasks,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:            project.ID,
		Name:          project.Name,
		Description:   project.Description,
		Status:        project.Status,
		StartDate:     project.StartDate,
		EndDate:       project.EndDate,
		Location:      project.Location,
		Budget:        project.Budget,
		ClientName:    project.ClientName,
		ClientContact: project.ClientContact,
		ManagerID:     project.ManagerID,
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
	}

	// Include manager if preloaded
	if project.Manager != nil {
		manager := ToUserSummaryDTO(*project.Manager)
		dto.Manager = &manager
	}

	// Include tasks if preloaded
	if len(project.Tasks) > 0 {
		dto.Tasks = ToTaskDTOs(project.Tasks)
	}

	return dto
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}
	return items
}

// ToProjectListResponse converts a page of projects
func ToProjectListResponse(projects []models.Project, params utils.PaginationParams, total int64) ProjectListResponse {
	return ProjectListResponse{
		Projects:   ToProjectDTOs(projects),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
