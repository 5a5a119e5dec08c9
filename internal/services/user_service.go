package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrSelfDeactivation   = errors.New("admins cannot deactivate their own account")
	ErrSelfDeletion       = errors.New("admins cannot delete their own account")
	ErrRolesRequired      = errors.New("roles must be a non-empty list")
	ErrUnsupportedImage   = errors.New("profile image must be a JPEG, PNG or GIF")
	ErrFileTooLarge       = errors.New("file exceeds the maximum allowed size")
	ErrSearchQueryMissing = errors.New("search query is required")
)

var profileImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Columns matched by user searches.
var (
	adminSearchColumns  = []string{"username", "email", "full_name", "position"}
	workerSearchColumns = []string{"full_name", "username", "position"}
)

// UserService handles profiles, user administration and worker listings.
type UserService struct {
	userRepo      repository.UserRepository
	roleRepo      repository.RoleRepository
	files         storage.FileStore
	maxImageBytes int64
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, files storage.FileStore, maxImageBytes int64) *UserService {
	return &UserService{
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		files:         files,
		maxImageBytes: maxImageBytes,
	}
}

func (s *UserService) findUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id, "Roles")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetProfile returns the actor's own account.
func (s *UserService) GetProfile(actor authz.Actor) (*models.User, error) {
	return s.findUser(actor.UserID)
}

// ProfilePatch lists the fields a user may change on their own account.
type ProfilePatch struct {
	Email        *string
	FullName     *string
	Phone        *string
	Position     *string
	ProfileImage *string
	Password     *string
}

// UpdateProfile applies a self-service update.
func (s *UserService) UpdateProfile(actor authz.Actor, input ProfilePatch) (*models.User, error) {
	user, err := s.findUser(actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.applyAccountFields(user, accountFields{
		Email:        input.Email,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Position:     input.Position,
		ProfileImage: input.ProfileImage,
		Password:     input.Password,
	}); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// UpdateProfileImage stores a new avatar for the actor.
func (s *UserService) UpdateProfileImage(actor authz.Actor, upload Upload) (*models.User, error) {
	if !profileImageTypes[strings.ToLower(upload.ContentType)] {
		return nil, ErrUnsupportedImage
	}
	if upload.Size > s.maxImageBytes {
		return nil, ErrFileTooLarge
	}

	user, err := s.findUser(actor.UserID)
	if err != nil {
		return nil, err
	}

	stored, err := s.files.Save(constants.UploadCategoryProfileImages, upload.FileName, upload.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store profile image: %w", err)
	}

	user.ProfileImage = stored.Locator
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile image: %w", err)
	}
	return user, nil
}

// ListUsers returns every user.
func (s *UserService) ListUsers(actor authz.Actor) ([]models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SearchUsers matches query against username, email, full name and position.
// Storage failures yield an empty result instead of an error; only an
// authorization denial is returned.
func (s *UserService) SearchUsers(actor authz.Actor, query string) ([]models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.userRepo.Search(strings.TrimSpace(query), adminSearchColumns...)
	if err != nil {
		return []models.User{}, nil
	}
	return users, nil
}

// GetUser returns any user by ID.
func (s *UserService) GetUser(actor authz.Actor, id uint64) (*models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.findUser(id)
}

// CreateUser creates an account on behalf of an admin.
func (s *UserService) CreateUser(actor authz.Actor, input SignupInput) (*models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return createAccount(s.userRepo, s.roleRepo, input)
}

// AdminUserPatch lists the fields an admin may change on any account. A nil
// Roles leaves the role set unchanged.
type AdminUserPatch struct {
	Username     *string
	Email        *string
	FullName     *string
	Phone        *string
	Position     *string
	ProfileImage *string
	Password     *string
	Active       *bool
	Roles        []string
}

// UpdateUser applies an admin update, including an optional role replacement.
func (s *UserService) UpdateUser(actor authz.Actor, id uint64, input AdminUserPatch) (*models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.findUser(id)
	if err != nil {
		return nil, err
	}

	var roles []models.Role
	if input.Roles != nil {
		if roles, err = s.checkRoleChange(actor, user.ID, input.Roles); err != nil {
			return nil, err
		}
	}
	if input.Active != nil && !*input.Active && actor.UserID == user.ID {
		return nil, ErrSelfDeactivation
	}

	if input.Username != nil {
		username := trimmed(input.Username)
		if len(username) < constants.MinUsernameLength {
			return nil, invalidInput("username must be at least %d characters", constants.MinUsernameLength)
		}
		if err := ensureUnique(s.userRepo, username, "", user.ID); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if err := s.applyAccountFields(user, accountFields{
		Email:        input.Email,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Position:     input.Position,
		ProfileImage: input.ProfileImage,
		Password:     input.Password,
	}); err != nil {
		return nil, err
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if input.Roles != nil {
		if err := s.userRepo.UpdateWithRoles(user, roles); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	} else if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.findUser(user.ID)
}

// UpdateUserRoles replaces the role set of a user.
func (s *UserService) UpdateUserRoles(actor authz.Actor, id uint64, rawRoles []string) (*models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if len(rawRoles) == 0 {
		return nil, ErrRolesRequired
	}

	user, err := s.findUser(id)
	if err != nil {
		return nil, err
	}

	roles, err := s.checkRoleChange(actor, user.ID, rawRoles)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.ReplaceRoles(user, roles); err != nil {
		return nil, fmt.Errorf("failed to update roles: %w", err)
	}
	return s.findUser(user.ID)
}

// checkRoleChange resolves the proposed roles and applies the self-demotion guard.
func (s *UserService) checkRoleChange(actor authz.Actor, targetID uint64, rawRoles []string) ([]models.Role, error) {
	if len(rawRoles) == 0 {
		return nil, ErrRolesRequired
	}
	roles, err := resolveRoles(s.roleRepo, rawRoles)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckRoleChange(actor, targetID, roleNames(roles)); err != nil {
		return nil, err
	}
	return roles, nil
}

// SetUserActive enables or disables sign-in for a user.
func (s *UserService) SetUserActive(actor authz.Actor, id uint64, active bool) (*models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !active && actor.UserID == id {
		return nil, ErrSelfDeactivation
	}

	user, err := s.findUser(id)
	if err != nil {
		return nil, err
	}

	user.Active = active
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user and their role assignments.
func (s *UserService) DeleteUser(actor authz.Actor, id uint64) error {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if actor.UserID == id {
		return ErrSelfDeletion
	}

	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListManagers returns users holding the manager role.
func (s *UserService) ListManagers(actor authz.Actor) ([]models.User, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListByRole(models.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	return users, nil
}

// ListWorkers returns users eligible for task assignment.
func (s *UserService) ListWorkers() ([]models.User, error) {
	users, err := s.userRepo.ListByRole(models.RoleWorker)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return assignable(users), nil
}

// SearchWorkers matches query against full name, username and position of
// users eligible for task assignment.
func (s *UserService) SearchWorkers(query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchQueryMissing
	}

	users, err := s.userRepo.Search(query, workerSearchColumns...)
	if err != nil {
		return nil, fmt.Errorf("failed to search workers: %w", err)
	}

	workers := make([]models.User, 0, len(users))
	for _, u := range assignable(users) {
		if authz.NewActor(&u).HasRole(models.RoleWorker) {
			workers = append(workers, u)
		}
	}
	return workers, nil
}

// assignable drops users holding admin or manager roles.
func assignable(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for i := range users {
		if authz.CheckAssigneeEligible(authz.NewActor(&users[i])) == nil {
			out = append(out, users[i])
		}
	}
	return out
}

type accountFields struct {
	Email        *string
	FullName     *string
	Phone        *string
	Position     *string
	ProfileImage *string
	Password     *string
}

func (s *UserService) applyAccountFields(user *models.User, fields accountFields) error {
	if fields.Email != nil {
		email := trimmed(fields.Email)
		if err := validate.Var(email, "required,email"); err != nil {
			return invalidInput("email is invalid")
		}
		if err := ensureUnique(s.userRepo, "", email, user.ID); err != nil {
			return err
		}
		user.Email = email
	}
	if fields.FullName != nil {
		fullName := trimmed(fields.FullName)
		if fullName == "" {
			return invalidInput("full name cannot be empty")
		}
		user.FullName = fullName
	}
	if fields.Phone != nil {
		user.Phone = trimmed(fields.Phone)
	}
	if fields.Position != nil {
		user.Position = trimmed(fields.Position)
	}
	if fields.ProfileImage != nil {
		user.ProfileImage = trimmed(fields.ProfileImage)
	}
	if fields.Password != nil {
		if len(*fields.Password) < constants.MinPasswordLength {
			return ErrPasswordTooShort
		}
		digest, err := auth.HashPassword(*fields.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = digest
	}
	return nil
}
