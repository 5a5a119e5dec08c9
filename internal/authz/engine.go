package authz

import (
	"github.com/yukikurage/construction-pm-api/internal/models"
)

// TaskChange describes which fields a task update touches.
type TaskChange interface {
	// StatusOnly reports whether status is the only field being changed.
	StatusOnly() bool
}

// IsManagerOrAdmin is the coarse gate for manager-level operations. When a
// project is given, its manager-of-record passes regardless of role.
func IsManagerOrAdmin(actor Actor, project *models.Project) bool {
	if actor.IsManager() || actor.IsAdmin() {
		return true
	}
	return project != nil && project.IsManagedBy(actor.UserID)
}

// RequireRole returns ErrAdminRequired or ErrManagerRequired style denials.
func RequireRole(actor Actor, role models.RoleName) error {
	if actor.HasRole(role) {
		return nil
	}
	if role == models.RoleAdmin {
		return ErrAdminRequired
	}
	return deny(DenialInsufficientRole, "requires "+string(role)+" role")
}

func CanManageProject(project *models.Project, actor Actor) bool {
	return project.IsManagedBy(actor.UserID) || actor.IsAdmin()
}

// CheckManageProject is CanManageProject returning a denial.
func CheckManageProject(project *models.Project, actor Actor) error {
	if CanManageProject(project, actor) {
		return nil
	}
	return ErrNotProjectManager
}

func CanDeleteProject(project *models.Project, actor Actor) error {
	return CheckManageProject(project, actor)
}

// CanUpdateTask decides a general task update. The task's Project must be loaded.
// Rules are evaluated in order: manager-of-record, assignee, admin.
func CanUpdateTask(task *models.Task, actor Actor, change TaskChange) error {
	if task.Project.IsManagedBy(actor.UserID) {
		return nil
	}
	if task.IsAssignedTo(actor.UserID) {
		if change.StatusOnly() {
			return nil
		}
		return ErrAssigneeStatusOnly
	}
	if actor.IsAdmin() {
		return nil
	}
	return ErrTaskUpdateDenied
}

// CanUpdateTaskStatus decides a status-only update.
func CanUpdateTaskStatus(task *models.Task, actor Actor) error {
	if task.Project.IsManagedBy(actor.UserID) || task.IsAssignedTo(actor.UserID) || actor.IsAdmin() {
		return nil
	}
	return ErrTaskUpdateDenied
}

func CanDeleteTask(task *models.Task, actor Actor) error {
	return CheckManageProject(&task.Project, actor)
}

// CanReportOnTask guards hours, comments and attachments, which only the
// assignee may record.
func CanReportOnTask(task *models.Task, actor Actor) error {
	if task.IsAssignedTo(actor.UserID) {
		return nil
	}
	return ErrNotTaskAssignee
}

// CheckRoleChange rejects an admin removing their own admin role.
func CheckRoleChange(actor Actor, targetUserID uint64, proposed []models.RoleName) error {
	if actor.UserID != targetUserID || !actor.IsAdmin() {
		return nil
	}
	for _, r := range proposed {
		if r == models.RoleAdmin {
			return nil
		}
	}
	return ErrSelfDemotion
}

// CheckAssigneeEligible rejects candidates holding admin or manager roles.
func CheckAssigneeEligible(candidate Actor) error {
	if candidate.IsAdmin() || candidate.IsManager() {
		return ErrIneligibleAssignee
	}
	return nil
}
