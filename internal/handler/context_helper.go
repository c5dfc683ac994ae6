package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/langschool-api/internal/middleware"
	"github.com/noah-isme/langschool-api/internal/service"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// actorFromContext builds the caller identity from the verified claims and
// the role resolved by the guard chain.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Actor{}, false
	}
	return service.Actor{
		Email:     claims.Email,
		Role:      middleware.RoleFromContext(c),
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}

// idParam reads a UUID path parameter, rejecting malformed values with 400.
func idParam(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+name))
		return "", false
	}
	return id.String(), true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return false
	}
	return true
}
