package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a human account record. Registration and password management
// live in the accounts subsystem; this layer only reads users to check
// role and status at resolution time.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsActive returns true if the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
