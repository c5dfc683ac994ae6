package dto

import "github.com/noah-isme/langschool-api/internal/models"

// CreateUserRequest registers a user on first sign-in.
type CreateUserRequest struct {
	Email string      `json:"email" validate:"required,email"`
	Name  string      `json:"name" validate:"max=200"`
	Image string      `json:"image" validate:"omitempty,max=2048"`
	Role  models.Role `json:"role"`
}

// UserExistsResponse is returned when the email is already registered.
type UserExistsResponse struct {
	Message string `json:"message"`
}
