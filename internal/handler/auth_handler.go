package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/service"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// AuthHandler issues access tokens.
type AuthHandler struct {
	tokens *service.TokenService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// Issue godoc
// @Summary Issue access token
// @Description Sign an identity claim and return a bearer token valid for one hour
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.IdentityClaim true "Identity claim"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} response.ErrorBody
// @Router /jwt [post]
func (h *AuthHandler) Issue(c *gin.Context) {
	var claim models.IdentityClaim
	if !bindJSON(c, &claim) {
		return
	}

	token, err := h.tokens.Issue(claim)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, token)
}
