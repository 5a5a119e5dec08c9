package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"github.com/yukikurage/construction-pm-api/internal/notify"
	"github.com/yukikurage/construction-pm-api/internal/repository"
	"github.com/yukikurage/construction-pm-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username is already in use")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrMissingToken       = errors.New("no token provided")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
	ErrFailedToCreateUser = errors.New("failed to create user")
)

// AuthService handles sign-up, sign-in, token refresh and password reset.
type AuthService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	tokens     *auth.TokenManager
	resetCodes repository.ResetCodeStore
	mailer     notify.Mailer
	resetTTL   time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tokens *auth.TokenManager,
	resetCodes repository.ResetCodeStore,
	mailer notify.Mailer,
	resetTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		tokens:     tokens,
		resetCodes: resetCodes,
		mailer:     mailer,
		resetTTL:   resetTTL,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Position string
	Roles    []string
}

// Signup creates a user. Without roles the user becomes a worker.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	return createAccount(s.userRepo, s.roleRepo, input)
}

func createAccount(userRepo repository.UserRepository, roleRepo repository.RoleRepository, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	if len(username) < constants.MinUsernameLength {
		return nil, invalidInput("username must be at least %d characters", constants.MinUsernameLength)
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, invalidInput("email is invalid")
	}
	if fullName == "" {
		return nil, invalidInput("full name is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := ensureUnique(userRepo, username, email, 0); err != nil {
		return nil, err
	}

	rawRoles := input.Roles
	if len(rawRoles) == 0 {
		rawRoles = []string{string(models.RoleWorker)}
	}
	roles, err := resolveRoles(roleRepo, rawRoles)
	if err != nil {
		return nil, err
	}

	digest, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		FullName:     fullName,
		Phone:        strings.TrimSpace(input.Phone),
		Position:     strings.TrimSpace(input.Position),
		Active:       true,
	}

	if err := userRepo.Create(user, roles); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
	}
	user.Roles = roles

	return user, nil
}

// ensureUnique rejects a username or email held by a user other than exceptID.
func ensureUnique(userRepo repository.UserRepository, username, email string, exceptID uint64) error {
	if username != "" {
		existing, err := userRepo.FindByUsername(username)
		if err == nil && existing.ID != exceptID {
			return ErrUsernameTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}
	}

	if email != "" {
		existing, err := userRepo.FindByEmail(email)
		if err == nil && existing.ID != exceptID {
			return ErrEmailTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}
	}

	return nil
}

// SigninInput holds the credentials for authentication.
type SigninInput struct {
	Username string
	Password string
}

// SigninResult is returned on successful authentication.
type SigninResult struct {
	User        *models.User
	Token       string
	ExpiresAt   time.Time
	Authorities []string
}

// Signin verifies credentials and issues an access token.
func (s *AuthService) Signin(input SigninInput) (*SigninResult, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &SigninResult{
		User:        user,
		Token:       token,
		ExpiresAt:   expiresAt,
		Authorities: authz.Authorities(authz.NewActor(user).Roles),
	}, nil
}

// TokenResult is a freshly issued access token.
type TokenResult struct {
	Token     string
	ExpiresAt time.Time
}

// RefreshToken reissues a token for the user named by oldToken. Expiry of the
// old token is ignored but its signature must verify.
func (s *AuthService) RefreshToken(oldToken string) (*TokenResult, error) {
	if strings.TrimSpace(oldToken) == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.tokens.DecodeIgnoringExpiry(oldToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetUser(claims.UserID); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset sends a one-time code to the account's email address.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalidInput("email is required")
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	code, err := utils.GenerateResetCode(constants.ResetCodeLength)
	if err != nil {
		return err
	}
	digest, err := auth.HashPassword(code)
	if err != nil {
		return err
	}

	if err := s.resetCodes.Save(ctx, user.ID, digest, s.resetTTL); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	if err := s.mailer.SendPasswordResetCode(ctx, user.Email, code); err != nil {
		return fmt.Errorf("failed to deliver reset code: %w", err)
	}
	return nil
}

// ResetPasswordInput completes a reset started by RequestPasswordReset.
type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// ResetPassword overwrites the password after checking the one-time code.
// A wrong code invalidates the pending code.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	email := strings.TrimSpace(input.Email)
	code := strings.TrimSpace(input.Code)
	if email == "" || code == "" || input.NewPassword == "" {
		return invalidInput("email, code and new password are required")
	}
	if len(input.NewPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	stored, err := s.resetCodes.Fetch(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrResetCodeNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("failed to load reset code: %w", err)
	}
	if !auth.CheckPassword(stored, code) {
		if err := s.resetCodes.Delete(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to discard reset code: %w", err)
		}
		return ErrInvalidResetCode
	}

	digest, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = digest
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.resetCodes.Delete(ctx, user.ID)
}

// AdminBootstrap describes the account created on first start.
type AdminBootstrap struct {
	Username string
	Email    string
	Password string
	FullName string
}

// EnsureAdmin creates the bootstrap admin unless a user with that username
// already exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(input AdminBootstrap) (bool, error) {
	if input.Password == "" {
		return false, nil
	}

	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to check admin user: %w", err)
	}

	_, err := createAccount(s.userRepo, s.roleRepo, SignupInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
		Roles:    []string{string(models.RoleAdmin)},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetUser retrieves a user by ID with roles.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id, "Roles")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
