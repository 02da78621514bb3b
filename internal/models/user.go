package models

import (
	"time"
)

// Roles
const (
	RoleAdmin  = "admin"
	RoleBroker = "broker"
)

// Account statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         string // "admin" or "broker"
	Status       string // "active", "inactive", "pending"
	RefreshToken *string // Last issued refresh token; nil after logout
	LastLoginAt  *time.Time
	CreatedBy    string
	UpdatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the name shown on content the user submits
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// IsActive reports whether the account may log in
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// statusTransitions lists the admin-driven account status changes
var statusTransitions = map[string][]string{
	StatusPending:  {StatusActive},
	StatusActive:   {StatusInactive},
	StatusInactive: {StatusActive},
}

// CanTransitionStatus reports whether an account may move from one status to another.
// Re-applying the current status is allowed and treated as a no-op.
func CanTransitionStatus(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is a known role
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleBroker
}

// UserUpdate holds the admin-editable fields to change; nil means unchanged
type UserUpdate struct {
	FullName *string
	Role     *string
	Status   *string
}
