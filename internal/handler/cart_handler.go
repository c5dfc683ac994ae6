package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/dto"
	"github.com/noah-isme/langschool-api/internal/service"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// CartHandler manages pending course selections.
type CartHandler struct {
	service *service.CartService
}

// NewCartHandler constructs a cart handler.
func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{service: svc}
}

// List godoc
// @Summary List cart items
// @Tags Carts
// @Produce json
// @Security BearerAuth
// @Param email query string true "Owner email"
// @Success 200 {array} models.CartItem
// @Failure 403 {object} response.ErrorBody
// @Router /carts [get]
func (h *CartHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Add godoc
// @Summary Add course to cart
// @Tags Carts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AddCartRequest true "Cart item"
// @Success 201 {object} models.WriteResult
// @Failure 403 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /carts [post]
func (h *CartHandler) Add(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AddCartRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Add(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Remove godoc
// @Summary Remove cart item
// @Tags Carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart item ID"
// @Success 200 {object} models.WriteResult
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /carts/{id} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Remove(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
