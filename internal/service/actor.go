package service

import (
	"strings"

	"github.com/noah-isme/langschool-api/internal/models"
)

// Actor identifies the authenticated caller of a use case.
type Actor struct {
	Email     string
	Role      models.Role
	IP        string
	UserAgent string
}

// IsAdmin reports whether the caller holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Owns reports whether email belongs to the caller.
func (a Actor) Owns(email string) bool {
	return a.Email != "" && strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(email))
}

// OwnsOrAdmin reports whether the caller owns email or is an admin.
func (a Actor) OwnsOrAdmin(email string) bool {
	return a.IsAdmin() || a.Owns(email)
}
