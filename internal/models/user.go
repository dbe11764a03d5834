package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a portal login. At most one user exists per email; a user
// with an empty password hash is pending setup and cannot log in until the
// password-setup link has been used.
type User struct {
	BaseModel

	Email     string `json:"email" db:"email"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`

	PasswordHash string `json:"-" db:"password_hash"`

	IsAdmin  bool `json:"isAdmin" db:"is_admin"`
	IsActive bool `json:"isActive" db:"is_active"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	TenantID *uuid.UUID `json:"tenantId,omitempty" db:"tenant_id"`
}

// HasUsablePassword reports whether the user has completed password setup
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}
