package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/construction-pm-api/internal/models"
)

// ErrUnknownRole is returned when a role name does not name any known role.
var ErrUnknownRole = errors.New("role not found")

// NormalizeRoleName maps user-supplied spellings such as "Admin", "ADMIN" or
// "role_admin" onto the canonical role. "user" is accepted as a synonym for
// worker. Matching is exact after normalization, so "administrator" is rejected.
func NormalizeRoleName(raw string) (models.RoleName, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownRole)
	}
	if !strings.HasPrefix(name, models.AuthorityPrefix) {
		name = models.AuthorityPrefix + name
	}

	switch strings.TrimPrefix(name, models.AuthorityPrefix) {
	case "ADMIN":
		return models.RoleAdmin, nil
	case "MANAGER":
		return models.RoleManager, nil
	case "WORKER", "USER":
		return models.RoleWorker, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// NormalizeRoleNames normalizes every entry and drops duplicates, keeping the
// first occurrence order.
func NormalizeRoleNames(raw []string) ([]models.RoleName, error) {
	seen := make(map[models.RoleName]struct{}, len(raw))
	names := make([]models.RoleName, 0, len(raw))
	for _, r := range raw {
		name, err := NormalizeRoleName(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// Authorities converts role names into their ROLE_ prefixed form.
func Authorities(names []models.RoleName) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n.Authority())
	}
	return out
}
