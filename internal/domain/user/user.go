package user

import (
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsValidRole reports whether role is one of the known role constants.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

var (
	ErrNotFound = errors.New("user not found")
	// either the username or the email is already taken
	ErrDuplicateIdentity = errors.New("username or email already exists")
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
