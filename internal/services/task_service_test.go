package services_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/patch"
	"github.com/yukikurage/construction-pm-api/internal/services"
	"github.com/yukikurage/construction-pm-api/internal/testutil"
)

type TaskServiceTestSuite struct {
	suite.Suite
	f        *fixture
	adminA   authz.Actor
	manager  *models.User
	managerA authz.Actor
	otherA   authz.Actor
	worker   *models.User
	workerA  authz.Actor
	peerA    authz.Actor
	project  *models.Project
	task     *models.Task
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	_, s.adminA = s.f.user(s.T(), "admin", models.RoleAdmin)
	s.manager, s.managerA = s.f.user(s.T(), "mike", models.RoleManager)
	_, s.otherA = s.f.user(s.T(), "olga", models.RoleManager)
	s.worker, s.workerA = s.f.user(s.T(), "wanda", models.RoleWorker)
	_, s.peerA = s.f.user(s.T(), "pavel", models.RoleWorker)

	s.project = testutil.CreateProject(s.T(), s.f.db, "Bridge", s.manager.ID)
	s.task = testutil.CreateTask(s.T(), s.f.db, "Pour foundation", s.project.ID, &s.worker.ID)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) TestCreateTask() {
	hours := 8.0
	task, err := s.f.tasks.CreateTask(s.managerA, services.CreateTaskInput{
		ProjectID:      s.project.ID,
		Title:          "Install rebar",
		EstimatedHours: &hours,
		AssigneeID:     &s.worker.ID,
	})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusPlanned, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
	s.True(task.IsAssignedTo(s.worker.ID))
	s.Require().NotNil(task.Assignee)
	s.Equal("wanda", task.Assignee.Username)
	s.Empty(task.Attachments)
}

func (s *TaskServiceTestSuite) TestCreateTask_Rejections() {
	_, err := s.f.tasks.CreateTask(s.workerA, services.CreateTaskInput{ProjectID: s.project.ID, Title: "Sneaky"})
	s.ErrorIs(err, authz.ErrManagerRequired)

	_, err = s.f.tasks.CreateTask(s.otherA, services.CreateTaskInput{ProjectID: s.project.ID, Title: "Not mine"})
	s.ErrorIs(err, authz.ErrNotProjectManager)

	_, err = s.f.tasks.CreateTask(s.managerA, services.CreateTaskInput{ProjectID: 999, Title: "Nowhere"})
	s.ErrorIs(err, services.ErrProjectNotFound)

	_, err = s.f.tasks.CreateTask(s.managerA, services.CreateTaskInput{
		ProjectID:  s.project.ID,
		Title:      "Self assign",
		AssigneeID: &s.manager.ID,
	})
	s.ErrorIs(err, authz.ErrIneligibleAssignee)

	missing := uint64(999)
	_, err = s.f.tasks.CreateTask(s.managerA, services.CreateTaskInput{
		ProjectID:  s.project.ID,
		Title:      "Ghost",
		AssigneeID: &missing,
	})
	s.ErrorIs(err, services.ErrAssigneeNotFound)

	_, err = s.f.tasks.CreateTask(s.managerA, services.CreateTaskInput{ProjectID: s.project.ID, Title: "x", Priority: "critical"})
	s.ErrorIs(err, services.ErrInvalidInput)

	// admins may create tasks in any project
	_, err = s.f.tasks.CreateTask(s.adminA, services.CreateTaskInput{ProjectID: s.project.ID, Title: "Inspection"})
	s.NoError(err)
}

func (s *TaskServiceTestSuite) decodePatch(body string) services.TaskPatch {
	var p services.TaskPatch
	s.Require().NoError(json.Unmarshal([]byte(body), &p))
	return p
}

func (s *TaskServiceTestSuite) TestUpdateTask_AssigneeStatusOnly() {
	task, err := s.f.tasks.UpdateTask(s.workerA, s.task.ID, s.decodePatch(`{"status":"in_progress"}`))
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, task.Status)

	for _, body := range []string{
		`{"status":"completed","title":"Renamed"}`,
		`{"title":"Renamed"}`,
		`{"status":"completed","notes":null}`,
		`{}`,
	} {
		_, err := s.f.tasks.UpdateTask(s.workerA, s.task.ID, s.decodePatch(body))
		s.ErrorIs(err, authz.ErrAssigneeStatusOnly, body)
	}

	reloaded, err := s.f.tasks.GetTask(s.task.ID)
	s.Require().NoError(err)
	s.Equal("Pour foundation", reloaded.Title)
	s.Equal(models.TaskStatusInProgress, reloaded.Status)
}

func (s *TaskServiceTestSuite) TestUpdateTask_UnknownFields() {
	body := `{"status":"completed","colour":"red"}`

	_, err := s.f.tasks.UpdateTask(s.workerA, s.task.ID, s.decodePatch(body))
	s.ErrorIs(err, authz.ErrAssigneeStatusOnly)

	_, err = s.f.tasks.UpdateTask(s.peerA, s.task.ID, s.decodePatch(body))
	s.ErrorIs(err, authz.ErrTaskUpdateDenied)

	_, err = s.f.tasks.UpdateTask(s.managerA, s.task.ID, s.decodePatch(body))
	s.ErrorIs(err, services.ErrInvalidInput)
	s.ErrorContains(err, "colour")

	reloaded, err := s.f.tasks.GetTask(s.task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusPlanned, reloaded.Status)

	task, err := s.f.tasks.UpdateTask(s.workerA, s.task.ID, s.decodePatch(`{"Status":"in_progress"}`))
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, task.Status)
}

func (s *TaskServiceTestSuite) TestUpdateTask_ManagerFullRights() {
	task, err := s.f.tasks.UpdateTask(s.managerA, s.task.ID, s.decodePatch(`{
		"title": "Pour slab",
		"priority": "urgent",
		"dueDate": "2026-11-30",
		"estimatedHours": 12.5
	}`))
	s.Require().NoError(err)
	s.Equal("Pour slab", task.Title)
	s.Equal(models.TaskPriorityUrgent, task.Priority)
	s.Require().NotNil(task.DueDate)
	s.Equal("2026-11-30", task.DueDate.Format("2006-01-02"))
	s.Require().NotNil(task.EstimatedHours)
	s.Equal(12.5, *task.EstimatedHours)

	task, err = s.f.tasks.UpdateTask(s.managerA, s.task.ID, s.decodePatch(`{"assigneeId":null}`))
	s.Require().NoError(err)
	s.Nil(task.AssigneeID)
}

func (s *TaskServiceTestSuite) TestUpdateTask_Reassign() {
	_, err := s.f.tasks.UpdateTask(s.managerA, s.task.ID, services.TaskPatch{AssigneeID: patch.Some(s.otherA.UserID)})
	s.ErrorIs(err, authz.ErrIneligibleAssignee)

	task, err := s.f.tasks.UpdateTask(s.managerA, s.task.ID, services.TaskPatch{AssigneeID: patch.Some(s.peerA.UserID)})
	s.Require().NoError(err)
	s.True(task.IsAssignedTo(s.peerA.UserID))
}

func (s *TaskServiceTestSuite) TestUpdateTask_SameAssigneeRecheckedAfterPromotion() {
	_, err := s.f.users.UpdateUserRoles(s.adminA, s.worker.ID, []string{"manager"})
	s.Require().NoError(err)

	_, err = s.f.tasks.UpdateTask(s.managerA, s.task.ID, services.TaskPatch{AssigneeID: patch.Some(s.worker.ID)})
	s.ErrorIs(err, authz.ErrIneligibleAssignee)
}

func (s *TaskServiceTestSuite) TestUpdateTask_Outsiders() {
	_, err := s.f.tasks.UpdateTask(s.peerA, s.task.ID, s.decodePatch(`{"status":"completed"}`))
	s.ErrorIs(err, authz.ErrTaskUpdateDenied)

	_, err = s.f.tasks.UpdateTask(s.otherA, s.task.ID, s.decodePatch(`{"title":"Mine"}`))
	s.ErrorIs(err, authz.ErrTaskUpdateDenied)

	task, err := s.f.tasks.UpdateTask(s.adminA, s.task.ID, s.decodePatch(`{"title":"Admin edit"}`))
	s.Require().NoError(err)
	s.Equal("Admin edit", task.Title)

	_, err = s.f.tasks.UpdateTask(s.adminA, 999, s.decodePatch(`{"title":"x"}`))
	s.ErrorIs(err, services.ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestUpdateTaskStatus() {
	task, err := s.f.tasks.UpdateTaskStatus(s.workerA, s.task.ID, services.TaskStatusPatch{Status: models.TaskStatusCompleted})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, task.Status)

	_, err = s.f.tasks.UpdateTaskStatus(s.peerA, s.task.ID, services.TaskStatusPatch{Status: models.TaskStatusPlanned})
	s.ErrorIs(err, authz.ErrTaskUpdateDenied)

	_, err = s.f.tasks.UpdateTaskStatus(s.workerA, s.task.ID, services.TaskStatusPatch{Status: "done"})
	s.ErrorIs(err, services.ErrInvalidInput)
}

func (s *TaskServiceTestSuite) TestReporting() {
	hours := 6.5
	task, err := s.f.tasks.UpdateActualHours(s.workerA, s.task.ID, &hours)
	s.Require().NoError(err)
	s.Require().NotNil(task.ActualHours)
	s.Equal(6.5, *task.ActualHours)

	negative := -1.0
	_, err = s.f.tasks.UpdateActualHours(s.workerA, s.task.ID, &negative)
	s.ErrorIs(err, services.ErrNegativeHours)
	_, err = s.f.tasks.UpdateActualHours(s.workerA, s.task.ID, nil)
	s.ErrorIs(err, services.ErrHoursRequired)

	// reporting is reserved for the assignee, even over the manager
	_, err = s.f.tasks.UpdateActualHours(s.managerA, s.task.ID, &hours)
	s.ErrorIs(err, authz.ErrNotTaskAssignee)

	_, err = s.f.tasks.AddComment(s.workerA, s.task.ID, "first")
	s.Require().NoError(err)
	task, err = s.f.tasks.AddComment(s.workerA, s.task.ID, "second")
	s.Require().NoError(err)
	s.Contains(task.Notes, "Wanda: second")
	s.Less(strings.Index(task.Notes, "second"), strings.Index(task.Notes, "first"))

	_, err = s.f.tasks.AddComment(s.workerA, s.task.ID, "   ")
	s.ErrorIs(err, services.ErrCommentEmpty)
	_, err = s.f.tasks.AddComment(s.adminA, s.task.ID, "hi")
	s.ErrorIs(err, authz.ErrNotTaskAssignee)
}

func (s *TaskServiceTestSuite) TestAddAttachment() {
	task, err := s.f.tasks.AddAttachment(s.workerA, s.task.ID, services.Upload{
		FileName:    "photo.jpg",
		ContentType: "image/jpeg",
		Size:        5,
		Content:     strings.NewReader("jpeg!"),
	})
	s.Require().NoError(err)
	s.Require().Len(task.Attachments, 1)
	s.Equal("photo.jpg", task.Attachments[0].FileName)
	s.Equal(int64(5), task.Attachments[0].FileSize)
	s.True(strings.HasPrefix(task.Attachments[0].FilePath, "/uploads/attachments/"))

	_, err = s.f.tasks.AddAttachment(s.workerA, s.task.ID, services.Upload{
		FileName: "huge.bin",
		Size:     4096,
		Content:  strings.NewReader("x"),
	})
	s.ErrorIs(err, services.ErrFileTooLarge)

	_, err = s.f.tasks.AddAttachment(s.workerA, s.task.ID, services.Upload{FileName: "none"})
	s.ErrorIs(err, services.ErrAttachmentRequired)
}

func (s *TaskServiceTestSuite) TestDeleteTask() {
	err := s.f.tasks.DeleteTask(s.workerA, s.task.ID)
	s.ErrorIs(err, authz.ErrNotProjectManager)

	s.Require().NoError(s.f.tasks.DeleteTask(s.managerA, s.task.ID))
	s.ErrorIs(s.f.tasks.DeleteTask(s.managerA, s.task.ID), services.ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestListings() {
	other := testutil.CreateProject(s.T(), s.f.db, "Tunnel", s.otherA.UserID)
	testutil.CreateTask(s.T(), s.f.db, "Dig", other.ID, &s.worker.ID)
	testutil.CreateTask(s.T(), s.f.db, "Survey", other.ID, nil)

	mine, err := s.f.tasks.ListMyTasks(s.workerA, nil)
	s.Require().NoError(err)
	s.Len(mine, 2)

	projectTasks, err := s.f.tasks.ListProjectTasks(other.ID)
	s.Require().NoError(err)
	s.Len(projectTasks, 2)

	_, err = s.f.tasks.ListProjectTasks(999)
	s.ErrorIs(err, services.ErrProjectNotFound)

	planned := models.TaskStatusPlanned
	tasks, total, err := s.f.tasks.ListTasks(services.ListTasksInput{Status: &planned, Page: 1, PageSize: 2})
	s.Require().NoError(err)
	s.Len(tasks, 2)
	s.Equal(int64(3), total)
}
