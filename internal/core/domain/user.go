package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus represents the state of a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is an authenticated principal. The wallet is created together with the
// user at registration and is the only wallet the user will ever own.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // Never expose
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	CompanyID    *uuid.UUID `json:"company_id,omitempty"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive returns true if the account is active.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
