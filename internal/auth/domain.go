package auth

import (
	"time"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// User represents a staff account allowed to compose quotes.
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	Phone        string      `json:"phone,omitempty"`
	JobTitle     string      `json:"job_title,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Identity projects the user into the request identity.
func (u User) Identity() shared.Identity {
	return shared.Identity{UserID: u.ID, Role: u.Role}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type RegisterRequest struct {
	Name     string      `json:"name" validate:"required,max=255"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     shared.Role `json:"role" validate:"omitempty,oneof=admin user"`
	Phone    string      `json:"phone" validate:"max=20"`
	JobTitle string      `json:"job_title" validate:"max=120"`
}

type UpdateUserRequest struct {
	Name     string      `json:"name" validate:"required,max=255"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"omitempty,min=8"`
	Role     shared.Role `json:"role" validate:"required,oneof=admin user"`
	Phone    string      `json:"phone" validate:"max=20"`
	JobTitle string      `json:"job_title" validate:"max=120"`
}
