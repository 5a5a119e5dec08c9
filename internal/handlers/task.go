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

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

func taskStatusQuery(c *gin.Context) (*models.TaskStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := models.TaskStatus(raw)
	if !status.Valid() {
		apierrors.BadRequest(c, "Invalid status")
		return nil, false
	}
	return &status, true
}

// ListTasks returns a page of tasks
// Can filter by projectId and status
func (h *TaskHandler) ListTasks(c *gin.Context) {
	projectID, ok := optionalUintQuery(c, "projectId")
	if !ok {
		return
	}
	status, ok := taskStatusQuery(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.ListTasks(services.ListTasksInput{
		ProjectID: projectID,
		Status:    status,
		Page:      params.Page,
		PageSize:  params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// ListMyTasks returns tasks assigned to the current user
func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	status, ok := taskStatusQuery(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListMyTasks(actor, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		ProjectID      uint64              `json:"projectId" binding:"required"`
		Title          string              `json:"title" binding:"required,max=255"`
		Description    string              `json:"description"`
		Status         models.TaskStatus   `json:"status" binding:"omitempty,task_status"`
		Priority       models.TaskPriority `json:"priority" binding:"omitempty,task_priority"`
		StartDate      *patch.Date         `json:"startDate"`
		DueDate        *patch.Date         `json:"dueDate"`
		EstimatedHours *float64            `json:"estimatedHours" binding:"omitempty,gte=0"`
		AssigneeID     *uint64             `json:"assigneeId"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.CreateTask(actor, services.CreateTaskInput{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		StartDate:      req.StartDate.TimePtr(),
		DueDate:        req.DueDate.TimePtr(),
		EstimatedHours: req.EstimatedHours,
		AssigneeID:     req.AssigneeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a general update. Unknown fields are rejected after the permission check.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.TaskPatch
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.UpdateTask(actor, middleware.GetIDParam(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus changes only the task status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		Status models.TaskStatus `json:"status" binding:"required,task_status"`
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.UpdateTaskStatus(actor, middleware.GetIDParam(c), services.TaskStatusPatch{Status: req.Status})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateActualHours records hours spent by the assignee
func (h *TaskHandler) UpdateActualHours(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		ActualHours *float64 `json:"actualHours"`
	}
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.UpdateActualHours(actor, middleware.GetIDParam(c), req.ActualHours)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Actual hours updated",
		"actualHours": task.ActualHours,
	})
}

// AddComment adds a comment by the assignee to the task notes
func (h *TaskHandler) AddComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.AddComment(actor, middleware.GetIDParam(c), req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment added",
		"notes":   task.Notes,
	})
}

// AddAttachment stores a file uploaded by the assignee
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	upload, closeFile, ok := uploadFromForm(c, "file")
	if !ok {
		return
	}
	defer closeFile()

	task, err := h.taskService.AddAttachment(actor, middleware.GetIDParam(c), upload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "File uploaded",
		"attachments": dto.ToTaskDTO(*task).Attachments,
	})
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(actor, middleware.GetIDParam(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
