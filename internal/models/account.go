package models

import (
	"time"
)

// Account roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account represents a registered customer or staff member.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed in JSON
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Role      string    `gorm:"size:20;not null" json:"role"`
}

// GetAccountID returns the account itself, used for ownership checks.
func (a *Account) GetAccountID() uint {
	return a.ID
}

// IsAdmin returns true for staff accounts.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
