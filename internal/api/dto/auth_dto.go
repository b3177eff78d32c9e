package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// LoginRequest authenticates a dispatcher.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token      string             `json:"token"`
	ExpiresAt  time.Time          `json:"expires_at"`
	Dispatcher DispatcherResponse `json:"dispatcher"`
}

// DispatcherResponse is the public dispatcher projection.
type DispatcherResponse struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Email string                `json:"email"`
	Role  domain.DispatcherRole `json:"role"`
}

// ChangePasswordRequest rotates the caller's credential.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
