package dto

import (
	"time"

	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/utils"
)

// ProjectRefDTO represents the project a task belongs to
type ProjectRefDTO struct {
	ID        uint64               `json:"id"`
	Name      string               `json:"name"`
	Status    models.ProjectStatus `json:"status"`
	ManagerID *uint64              `json:"managerId"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	StartDate      *time.Time          `json:"startDate"`
	DueDate        *time.Time          `json:"dueDate"`
	CompletedDate  *time.Time          `json:"completedDate"`
	EstimatedHours *float64            `json:"estimatedHours"`
	ActualHours    *float64            `json:"actualHours"`
	Attachments    []models.Attachment `json:"attachments"`
	Notes          string              `json:"notes"`
	ProjectID      uint64              `json:"projectId"`
	Project        *ProjectRefDTO      `json:"project,omitempty"`
	AssigneeID     *uint64             `json:"assigneeId"`
	Assignee       *UserSummaryDTO     `json:"assignee,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	attachments := []models.Attachment(task.Attachments)
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		StartDate:      task.StartDate,
		DueDate:        task.DueDate,
		CompletedDate:  task.CompletedDate,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		Attachments:    attachments,
		Notes:          task.Notes,
		ProjectID:      task.ProjectID,
		AssigneeID:     task.AssigneeID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	// Include project if preloaded
	if task.Project.ID != 0 {
		dto.Project = &ProjectRefDTO{
			ID:        task.Project.ID,
			Name:      task.Project.Name,
			Status:    task.Project.Status,
			ManagerID: task.Project.ManagerID,
		}
	}

	// Include assignee if preloaded
	if task.Assignee != nil {
		assignee := ToUserSummaryDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskListResponse converts a page of tasks
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
