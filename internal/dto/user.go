package dto

import (
	"time"

	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID           uint64            `json:"id"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	FullName     string            `json:"fullName"`
	Phone        string            `json:"phone"`
	Position     string            `json:"position"`
	ProfileImage string            `json:"profileImage"`
	Active       bool              `json:"active"`
	Roles        []models.RoleName `json:"roles"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// UserSummaryDTO represents a user embedded in another resource
type UserSummaryDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Position string `json:"position,omitempty"`
}

// SigninResponse is returned by a successful sign-in
type SigninResponse struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	Position     string    `json:"position"`
	ProfileImage string    `json:"profileImage"`
	Roles        []string  `json:"roles"`
	AccessToken  string    `json:"accessToken"`
	TokenExpiry  time.Time `json:"tokenExpiry"`
}

// TokenResponse carries a freshly issued access token
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenExpiry time.Time `json:"tokenExpiry"`
}

// ToUserDTO converts a User model to UserDTO. Roles are reported by base name.
func ToUserDTO(user models.User) UserDTO {
	roles := authz.NewActor(&user).Roles
	if roles == nil {
		roles = []models.RoleName{}
	}

	return UserDTO{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Phone:        user.Phone,
		Position:     user.Position,
		ProfileImage: user.ProfileImage,
		Active:       user.Active,
		Roles:        roles,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Position: user.Position,
	}
}

// ToUserSummaryDTOs converts a slice of users
func ToUserSummaryDTOs(users []models.User) []UserSummaryDTO {
	items := make([]UserSummaryDTO, len(users))
	for i, user := range users {
		items[i] = ToUserSummaryDTO(user)
	}
	return items
}

// ToSigninResponse combines the user and the issued token
func ToSigninResponse(user models.User, token string, expiresAt time.Time, authorities []string) SigninResponse {
	return SigninResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Phone:        user.Phone,
		Position:     user.Position,
		ProfileImage: user.ProfileImage,
		Roles:        authorities,
		AccessToken:  token,
		TokenExpiry:  expiresAt,
	}
}
