package models

import (
	"time"
)

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"fullName"`
	Phone        string    `gorm:"type:varchar(50)" json:"phone"`
	Position     string    `gorm:"type:varchar(100)" json:"position"`
	ProfileImage string    `gorm:"type:varchar(500)" json:"profileImage"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Relations
	Roles           []Role    `gorm:"many2many:user_roles;" json:"-"`
	ManagedProjects []Project `gorm:"foreignKey:ManagerID" json:"-"`
	AssignedTasks   []Task    `gorm:"foreignKey:AssigneeID" json:"-"`
}

// RoleNames returns the names of the preloaded roles.
func (u User) RoleNames() []RoleName {
	names := make([]RoleName, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
