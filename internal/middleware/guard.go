package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/models"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// ContextRoleKey is the gin context key storing the caller's stored role.
const ContextRoleKey = "currentRole"

// RoleLookup resolves the stored role of a user.
type RoleLookup interface {
	LookupRole(ctx context.Context, email string) (models.Role, error)
}

// EmailSource extracts the email a request is addressed to.
type EmailSource func(c *gin.Context) string

// EmailParam reads the target email from a path parameter.
func EmailParam(name string) EmailSource {
	return func(c *gin.Context) string { return c.Param(name) }
}

// EmailQuery reads the target email from a query parameter.
func EmailQuery(name string) EmailSource {
	return func(c *gin.Context) string { return c.Query(name) }
}

// SelfEmail allows the request only when the token's email matches the target email.
func SelfEmail(source EmailSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !sameEmail(claims.Email, source(c)) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SelfOrRole allows the request when the caller is the target or holds one of roles.
func SelfOrRole(source EmailSource, lookup RoleLookup, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		role, ok := resolve(c, lookup, claims.Email)
		if !ok {
			return
		}
		if sameEmail(claims.Email, source(c)) || hasRole(role, roles) {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// ResolveRole looks up the caller's stored role and keeps it on the context.
func ResolveRole(lookup RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := resolve(c, lookup, claims.Email); !ok {
			return
		}
		c.Next()
	}
}

// RequireRole allows the request only when the caller's stored role is one
// of roles. The role is read from storage on every request.
func RequireRole(lookup RoleLookup, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		role, ok := resolve(c, lookup, claims.Email)
		if !ok {
			return
		}
		if !hasRole(role, roles) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RoleFromContext returns the role resolved earlier in the chain.
func RoleFromContext(c *gin.Context) models.Role {
	value, exists := c.Get(ContextRoleKey)
	if !exists {
		return models.RoleUnset
	}
	role, _ := value.(models.Role)
	return role
}

func resolve(c *gin.Context, lookup RoleLookup, email string) (models.Role, bool) {
	role, err := lookup.LookupRole(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		c.Abort()
		return models.RoleUnset, false
	}
	c.Set(ContextRoleKey, role)
	return role, true
}

func hasRole(role models.Role, allowed []models.Role) bool {
	if role == models.RoleUnset {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func sameEmail(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
