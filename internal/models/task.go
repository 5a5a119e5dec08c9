package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusPlanned    TaskStatus = "planned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPlanned, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Attachment is a file reported against a task by its assignee.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FilePath   string    `json:"filePath"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	UploadDate time.Time `json:"uploadDate"`
}

type Task struct {
	ID             uint64                          `gorm:"primarykey" json:"id"`
	Title          string                          `gorm:"type:varchar(255);not null" json:"title"`
	Description    string                          `gorm:"type:text" json:"description"`
	Status         TaskStatus                      `gorm:"type:varchar(20);not null;default:'planned'" json:"status"`
	Priority       TaskPriority                    `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	StartDate      *time.Time                      `gorm:"type:date" json:"startDate"`
	DueDate        *time.Time                      `gorm:"type:date" json:"dueDate"`
	CompletedDate  *time.Time                      `gorm:"type:date" json:"completedDate"`
	EstimatedHours *float64                        `json:"estimatedHours"`
	ActualHours    *float64                        `json:"actualHours"`
	Attachments    datatypes.JSONSlice[Attachment] `json:"attachments"`
	Notes          string                          `gorm:"type:text" json:"notes"`
	ProjectID      uint64                          `gorm:"not null;index" json:"projectId"`
	AssigneeID     *uint64                         `gorm:"index" json:"assigneeId"`
	CreatedAt      time.Time                       `json:"createdAt"`
	UpdatedAt      time.Time                       `json:"updatedAt"`

	// Relations
	Project  Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee *User   `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t Task) IsAssignedTo(userID uint64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
