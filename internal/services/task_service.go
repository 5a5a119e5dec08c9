package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/patch"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrAssigneeNotFound   = errors.New("assignee not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrCommentEmpty       = errors.New("comment cannot be empty")
	ErrHoursRequired      = errors.New("actual hours are required")
	ErrNegativeHours      = errors.New("hours cannot be negative")
	ErrAttachmentRequired = errors.New("file is required")
)

var taskPreloads = []string{"Project", "Assignee"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo           repository.TaskRepository
	projectRepo        repository.ProjectRepository
	userRepo           repository.UserRepository
	files              storage.FileStore
	maxAttachmentBytes int64
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	files storage.FileStore,
	maxAttachmentBytes int64,
) *TaskService {
	return &TaskService{
		taskRepo:           taskRepo,
		projectRepo:        projectRepo,
		userRepo:           userRepo,
		files:              files,
		maxAttachmentBytes: maxAttachmentBytes,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ProjectID *uint64
	Status    *models.TaskStatus
	Page      int
	PageSize  int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID      uint64
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	StartDate      *time.Time
	DueDate        *time.Time
	EstimatedHours *float64
	AssigneeID     *uint64
}

// TaskPatch is a full task update, allowed for the project's manager and admins.
// The assignee may submit it only when status is the sole field present.
type TaskPatch struct {
	Title          patch.Field[string]              `json:"title"`
	Description    patch.Field[string]              `json:"description"`
	Status         patch.Field[models.TaskStatus]   `json:"status"`
	Priority       patch.Field[models.TaskPriority] `json:"priority"`
	StartDate      patch.Field[patch.Date]          `json:"startDate"`
	DueDate        patch.Field[patch.Date]          `json:"dueDate"`
	CompletedDate  patch.Field[patch.Date]          `json:"completedDate"`
	EstimatedHours patch.Field[float64]             `json:"estimatedHours"`
	ActualHours    patch.Field[float64]             `json:"actualHours"`
	Notes          patch.Field[string]              `json:"notes"`
	AssigneeID     patch.Field[uint64]              `json:"assigneeId"`

	// Unknown lists body keys that match no field above.
	Unknown []string `json:"-"`
}

// taskPatchKeys holds the lowercased body keys of TaskPatch; encoding/json
// matches keys case-insensitively.
var taskPatchKeys = map[string]bool{
	"title": true, "description": true, "status": true, "priority": true,
	"startdate": true, "duedate": true, "completeddate": true,
	"estimatedhours": true, "actualhours": true, "notes": true, "assigneeid": true,
}

// UnmarshalJSON decodes the patch and records undeclared keys in Unknown.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type plain TaskPatch
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	for key := range keys {
		if !taskPatchKeys[strings.ToLower(key)] {
			decoded.Unknown = append(decoded.Unknown, key)
		}
	}
	sort.Strings(decoded.Unknown)

	*p = TaskPatch(decoded)
	return nil
}

// StatusOnly reports whether status is the only field present.
func (p TaskPatch) StatusOnly() bool {
	others := p.Title.Set || p.Description.Set || p.Priority.Set ||
		p.StartDate.Set || p.DueDate.Set || p.CompletedDate.Set ||
		p.EstimatedHours.Set || p.ActualHours.Set || p.Notes.Set || p.AssigneeID.Set ||
		len(p.Unknown) > 0
	return p.Status.Set && !others
}

// TaskStatusPatch is the status-only update available to assignees.
type TaskStatusPatch struct {
	Status models.TaskStatus
}

// ListTasks returns tasks matching the filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		ProjectID: input.ProjectID,
		Status:    input.Status,
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// ListMyTasks returns tasks assigned to the actor
func (s *TaskService) ListMyTasks(actor authz.Actor, status *models.TaskStatus) ([]models.Task, error) {
	tasks, _, err := s.taskRepo.List(repository.TaskFilter{
		AssigneeID: &actor.UserID,
		Status:     status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListProjectTasks returns every task of a project
func (s *TaskService) ListProjectTasks(projectID uint64) ([]models.Task, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}

	tasks, _, err := s.taskRepo.List(repository.TaskFilter{ProjectID: &projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(id uint64) (*models.Task, error) {
	return s.findTask(id, "Project", "Project.Manager", "Assignee")
}

func (s *TaskService) findTask(id uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findProject(id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// CreateTask creates a task inside a project managed by the actor
func (s *TaskService) CreateTask(actor authz.Actor, input CreateTaskInput) (*models.Task, error) {
	project, err := s.findProject(input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !authz.IsManagerOrAdmin(actor, project) {
		return nil, authz.ErrManagerRequired
	}
	if err := authz.CheckManageProject(project, actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusPlanned
	}
	if !input.Status.Valid() {
		return nil, invalidInput("unknown task status %q", input.Status)
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, invalidInput("unknown task priority %q", input.Priority)
	}
	if input.EstimatedHours != nil && *input.EstimatedHours < 0 {
		return nil, ErrNegativeHours
	}
	if err := validateDateRange(input.StartDate, input.DueDate, "due date"); err != nil {
		return nil, err
	}
	if input.AssigneeID != nil {
		if err := s.checkAssignee(*input.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		StartDate:      input.StartDate,
		DueDate:        input.DueDate,
		EstimatedHours: input.EstimatedHours,
		Attachments:    []models.Attachment{},
		ProjectID:      project.ID,
		AssigneeID:     input.AssigneeID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.findTask(task.ID, taskPreloads...)
}

// UpdateTask applies a general update. The assignee may only change status.
func (s *TaskService) UpdateTask(actor authz.Actor, id uint64, input TaskPatch) (*models.Task, error) {
	task, err := s.findTask(id, "Project")
	if err != nil {
		return nil, err
	}
	if err := authz.CanUpdateTask(task, actor, input); err != nil {
		return nil, err
	}
	if len(input.Unknown) > 0 {
		return nil, invalidInput("unknown fields: %s", strings.Join(input.Unknown, ", "))
	}

	if err := applyRequired(input.Title, &task.Title, "title"); err != nil {
		return nil, err
	}
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, ErrTitleRequired
	}
	if err := applyRequired(input.Description, &task.Description, "description"); err != nil {
		return nil, err
	}
	if err := applyRequired(input.Status, &task.Status, "status"); err != nil {
		return nil, err
	}
	if !task.Status.Valid() {
		return nil, invalidInput("unknown task status %q", task.Status)
	}
	if err := applyRequired(input.Priority, &task.Priority, "priority"); err != nil {
		return nil, err
	}
	if !task.Priority.Valid() {
		return nil, invalidInput("unknown task priority %q", task.Priority)
	}
	applyNullable(patch.DateField(input.StartDate), &task.StartDate)
	applyNullable(patch.DateField(input.DueDate), &task.DueDate)
	applyNullable(patch.DateField(input.CompletedDate), &task.CompletedDate)
	if err := validateDateRange(task.StartDate, task.DueDate, "due date"); err != nil {
		return nil, err
	}
	applyNullable(input.EstimatedHours, &task.EstimatedHours)
	applyNullable(input.ActualHours, &task.ActualHours)
	if (task.EstimatedHours != nil && *task.EstimatedHours < 0) || (task.ActualHours != nil && *task.ActualHours < 0) {
		return nil, ErrNegativeHours
	}
	if err := applyRequired(input.Notes, &task.Notes, "notes"); err != nil {
		return nil, err
	}
	if input.AssigneeID.Set {
		if input.AssigneeID.Value != nil {
			if err := s.checkAssignee(*input.AssigneeID.Value); err != nil {
				return nil, err
			}
		}
		task.AssigneeID = input.AssigneeID.Value
	}

	return s.save(task)
}

// UpdateTaskStatus changes only the status of a task.
func (s *TaskService) UpdateTaskStatus(actor authz.Actor, id uint64, input TaskStatusPatch) (*models.Task, error) {
	if !input.Status.Valid() {
		return nil, invalidInput("unknown task status %q", input.Status)
	}

	task, err := s.findTask(id, "Project")
	if err != nil {
		return nil, err
	}
	if err := authz.CanUpdateTaskStatus(task, actor); err != nil {
		return nil, err
	}

	task.Status = input.Status
	return s.save(task)
}

// DeleteTask deletes a task on behalf of the project's manager or an admin
func (s *TaskService) DeleteTask(actor authz.Actor, id uint64) error {
	task, err := s.findTask(id, "Project")
	if err != nil {
		return err
	}
	if err := authz.CanDeleteTask(task, actor); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// UpdateActualHours records the hours spent by the assignee.
func (s *TaskService) UpdateActualHours(actor authz.Actor, id uint64, hours *float64) (*models.Task, error) {
	task, err := s.findTask(id, "Project")
	if err != nil {
		return nil, err
	}
	if err := authz.CanReportOnTask(task, actor); err != nil {
		return nil, err
	}
	if hours == nil {
		return nil, ErrHoursRequired
	}
	if *hours < 0 {
		return nil, ErrNegativeHours
	}

	task.ActualHours = hours
	return s.save(task)
}

// AddComment prepends a timestamped comment by the assignee to the task notes.
func (s *TaskService) AddComment(actor authz.Actor, id uint64, comment string) (*models.Task, error) {
	task, err := s.findTask(id, "Project", "Assignee")
	if err != nil {
		return nil, err
	}
	if err := authz.CanReportOnTask(task, actor); err != nil {
		return nil, err
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrCommentEmpty
	}

	author := "unknown"
	if task.Assignee != nil {
		author = task.Assignee.DisplayName()
	}
	entry := fmt.Sprintf("[%s] %s: %s\n\n", time.Now().UTC().Format(time.RFC3339), author, comment)
	task.Notes = entry + task.Notes

	return s.save(task)
}

// AddAttachment stores a file reported by the assignee and appends it to the task.
func (s *TaskService) AddAttachment(actor authz.Actor, id uint64, upload Upload) (*models.Task, error) {
	task, err := s.findTask(id, "Project")
	if err != nil {
		return nil, err
	}
	if err := authz.CanReportOnTask(task, actor); err != nil {
		return nil, err
	}
	if upload.Content == nil {
		return nil, ErrAttachmentRequired
	}
	if upload.Size > s.maxAttachmentBytes {
		return nil, ErrFileTooLarge
	}

	stored, err := s.files.Save(constants.UploadCategoryAttachments, upload.FileName, upload.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	attachmentID := stored.ID
	if _, err := uuid.Parse(attachmentID); err != nil {
		attachmentID = uuid.NewString()
	}
	task.Attachments = append(task.Attachments, models.Attachment{
		ID:         attachmentID,
		FileName:   upload.FileName,
		FilePath:   stored.Locator,
		FileType:   upload.ContentType,
		FileSize:   stored.Size,
		UploadDate: time.Now().UTC(),
	})

	return s.save(task)
}

func (s *TaskService) save(task *models.Task) (*models.Task, error) {
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return s.findTask(task.ID, taskPreloads...)
}

func (s *TaskService) checkAssignee(userID uint64) error {
	user, err := s.userRepo.FindByID(userID, "Roles")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return authz.CheckAssigneeEligible(authz.NewActor(user))
}
