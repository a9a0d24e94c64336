package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin      UserRole = "Admin"      // moderates users and reports
	RoleInstructor UserRole = "Instructor" // owns courses
	RoleStudent    UserRole = "Student"    // enrolls in courses
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Username          string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email             string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password          string     `gorm:"type:text;not null" json:"-"`
	FirstName         string     `gorm:"size:100" json:"first_name"`
	LastName          string     `gorm:"size:100" json:"last_name"`
	Bio               string     `gorm:"type:text" json:"bio"`
	ProfilePictureURL string     `gorm:"size:500" json:"profile_picture_url"`
	Role              UserRole   `gorm:"type:varchar(20);not null;default:'Student'" json:"role"`
	IsActive          bool       `gorm:"not null" json:"is_active"`
	IsBanned          bool       `gorm:"not null;default:false" json:"is_banned"`
	TimeoutUntil      *time.Time `json:"timeout_until"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SanctionStatus is the moderation snapshot of a user exposed to the
// request-authorization layer.
type SanctionStatus struct {
	UserID       uint       `json:"user_id"`
	IsBanned     bool       `json:"is_banned"`
	IsTimedOut   bool       `json:"is_timed_out"`
	TimeoutUntil *time.Time `json:"timeout_until"`
}
