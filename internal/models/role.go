package models

import "strings"

// RoleName is the closed set of roles a user may hold.
type RoleName string

const (
	RoleAdmin   RoleName = "admin"
	RoleManager RoleName = "manager"
	RoleWorker  RoleName = "worker"
)

// AuthorityPrefix is prepended to role names in sign-in responses.
const AuthorityPrefix = "ROLE_"

// AllRoleNames lists every role that must exist in storage.
var AllRoleNames = []RoleName{RoleAdmin, RoleManager, RoleWorker}

// Authority returns the uppercased, prefixed form, e.g. ROLE_ADMIN.
func (r RoleName) Authority() string {
	return AuthorityPrefix + strings.ToUpper(string(r))
}

// Valid reports whether r is one of the known roles.
func (r RoleName) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleWorker:
		return true
	}
	return false
}

// Description returns the seeded description for the role.
func (r RoleName) Description() string {
	switch r {
	case RoleAdmin:
		return "Full access to users, roles, projects and tasks"
	case RoleManager:
		return "Manages projects and the tasks inside them"
	case RoleWorker:
		return "Executes assigned tasks and reports progress"
	}
	return ""
}

type Role struct {
	ID          uint64   `gorm:"primarykey" json:"id"`
	Name        RoleName `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string   `gorm:"type:varchar(255)" json:"description"`
}
