package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/dto"
	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/service"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// UserHandler handles user registration and role management.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// Create godoc
// @Summary Register user
// @Description Insert the user unless the email is already registered
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateUserRequest true "User"
// @Success 200 {object} dto.UserExistsResponse
// @Success 201 {object} models.WriteResult
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	result, exists, err := h.service.Register(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if exists {
		response.JSON(c, http.StatusOK, dto.UserExistsResponse{Message: service.UserExistsMessage})
		return
	}
	response.Created(c, result)
}

// RoleStatus godoc
// @Summary Check role
// @Description Report whether the caller holds the role in the path
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role path string true "student, teacher or admin"
// @Param email path string true "Email"
// @Success 200 {object} models.RoleStatus
// @Failure 403 {object} response.ErrorBody
// @Router /users/{role}/{email} [get]
func (h *UserHandler) RoleStatus(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.service.RoleStatus(c.Request.Context(), c.Param("email"), role)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, status)
	}
}

// Promote godoc
// @Summary Promote user
// @Description Set the role of a user; repeating a promotion is a no-op
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role path string true "teacher or admin"
// @Param id path string true "User ID"
// @Success 200 {object} models.WriteResult
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/{role}/{id} [patch]
func (h *UserHandler) Promote(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}

		result, err := h.service.Promote(c.Request.Context(), actor, id, role)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result)
	}
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.WriteResult
// @Failure 403 {object} response.ErrorBody
// @Router /user/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
