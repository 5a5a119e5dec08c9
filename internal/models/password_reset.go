package models

import "time"

// PasswordResetCode stores a pending one-time reset code when redis is not configured.
type PasswordResetCode struct {
	ID        uint64    `gorm:"primarykey"`
	UserID    uint64    `gorm:"not null;uniqueIndex"`
	CodeHash  string    `gorm:"type:varchar(255);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}
