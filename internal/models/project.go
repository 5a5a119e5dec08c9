package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusOnHold, ProjectStatusCancelled:
		return true
	}
	return false
}

type Project struct {
	ID            uint64        `gorm:"primarykey" json:"id"`
	Name          string        `gorm:"type:varchar(255);not null" json:"name"`
	Description   string        `gorm:"type:text" json:"description"`
	Status        ProjectStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	StartDate     *time.Time    `gorm:"type:date" json:"startDate"`
	EndDate       *time.Time    `gorm:"type:date" json:"endDate"`
	Location      string        `gorm:"type:varchar(255)" json:"location"`
	Budget        *float64      `gorm:"type:decimal(15,2)" json:"budget"`
	ClientName    string        `gorm:"type:varchar(255)" json:"clientName"`
	ClientContact string        `gorm:"type:varchar(255)" json:"clientContact"`
	ManagerID     *uint64       `gorm:"index" json:"managerId"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	// Relations
	Manager *User  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Tasks   []Task `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

// IsManagedBy reports whether userID is the manager-of-record.
func (p Project) IsManagedBy(userID uint64) bool {
	return p.ManagerID != nil && *p.ManagerID == userID
}
