package authz

import (
	"github.com/yukikurage/construction-pm-api/internal/models"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID uint64
	Roles  []models.RoleName
}

// NewActor builds an Actor from a user with preloaded roles. Stored names that
// do not normalize to a known role are ignored.
func NewActor(user *models.User) Actor {
	actor := Actor{UserID: user.ID}
	for _, role := range user.Roles {
		name, err := NormalizeRoleName(string(role.Name))
		if err != nil {
			continue
		}
		actor.Roles = append(actor.Roles, name)
	}
	return actor
}

func (a Actor) HasRole(role models.RoleName) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(models.RoleAdmin)
}

func (a Actor) IsManager() bool {
	return a.HasRole(models.RoleManager)
}
