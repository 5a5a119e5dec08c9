package services

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/patch"
	"github.com/yukikurage/construction-pm-api/internal/repository"
)

var (
	// ErrInvalidInput wraps every request validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRoleNotFound is returned when a known role has no stored row.
	ErrRoleNotFound = errors.New("role not found in storage")
)

var validate = validator.New()

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// resolveRoles normalizes raw role names and loads the stored rows.
func resolveRoles(roleRepo repository.RoleRepository, raw []string) ([]models.Role, error) {
	names, err := authz.NormalizeRoleNames(raw)
	if err != nil {
		return nil, err
	}

	roles, err := roleRepo.FindByNames(names)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	if len(roles) != len(names) {
		return nil, ErrRoleNotFound
	}
	return roles, nil
}

func roleNames(roles []models.Role) []models.RoleName {
	names := make([]models.RoleName, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}

// applyRequired copies a present, non-null value into dst.
func applyRequired[T any](f patch.Field[T], dst *T, name string) error {
	if !f.Set {
		return nil
	}
	if f.Value == nil {
		return invalidInput("%s cannot be null", name)
	}
	*dst = *f.Value
	return nil
}

// applyNullable copies a present value into dst; null clears it.
func applyNullable[T any](f patch.Field[T], dst **T) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		*dst = nil
		return
	}
	v := *f.Value
	*dst = &v
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func validateDateRange(start, end *time.Time, what string) error {
	if start != nil && end != nil && end.Before(*start) {
		return invalidInput("%s cannot be before its start date", what)
	}
	return nil
}
