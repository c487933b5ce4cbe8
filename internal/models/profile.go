package models

import "time"

// Profile represents an authenticated account and its portal role.
type Profile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	// RoleDeveloper marks an account that submits an application.
	RoleDeveloper = "developer"
	// RoleEvaluator marks an account that reviews applications.
	RoleEvaluator = "evaluator"
)
