package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-pm-api/internal/dto"
	apierrors "github.com/yukikurage/construction-pm-api/internal/errors"
	"github.com/yukikurage/construction-pm-api/internal/middleware"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/patch"
	"github.com/yukikurage/construction-pm-api/internal/services"
	"github.com/yukikurage/construction-pm-api/internal/utils"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
}

func NewProjectHandler(projectService *services.ProjectService, taskService *services.TaskService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		taskService:    taskService,
	}
}

// ListProjects returns a page of projects, optionally filtered by status
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var status *models.ProjectStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ProjectStatus(raw)
		if !s.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		status = &s
	}

	params := utils.GetPaginationParams(c)
	projects, total, err := h.projectService.ListProjects(services.ListProjectsInput{
		Status:   status,
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params, total))
}

// ListMyProjects returns projects managed by the current user
func (h *ProjectHandler) ListMyProjects(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListMyProjects(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTOs(projects))
}

// GetProject returns a project with its manager and tasks
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProject(middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// ListProjectTasks returns every task of a project
func (h *ProjectHandler) ListProjectTasks(c *gin.Context) {
	tasks, err := h.taskService.ListProjectTasks(middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name          string               `json:"name" binding:"required,max=255"`
		Description   string               `json:"description"`
		Status        models.ProjectStatus `json:"status" binding:"omitempty,project_status"`
		StartDate     *patch.Date          `json:"startDate"`
		EndDate       *patch.Date          `json:"endDate"`
		Location      string               `json:"location"`
		Budget        *float64             `json:"budget" binding:"omitempty,gte=0"`
		ClientName    string               `json:"clientName"`
		ClientContact string               `json:"clientContact"`
		ManagerID     *uint64              `json:"managerId"`
	}

	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.CreateProject(actor, services.CreateProjectInput{
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		StartDate:     req.StartDate.TimePtr(),
		EndDate:       req.EndDate.TimePtr(),
		Location:      req.Location,
		Budget:        req.Budget,
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		ManagerID:     req.ManagerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject applies a partial update
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ProjectPatch
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.UpdateProject(actor, middleware.GetIDParam(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project and its tasks
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(actor, middleware.GetIDParam(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}
