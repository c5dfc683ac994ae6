package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/service"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// CatalogHandler serves the public, cached catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Instructors godoc
// @Summary List instructors
// @Tags Catalog
// @Produce json
// @Success 200 {array} models.Instructor
// @Router /instructors [get]
func (h *CatalogHandler) Instructors(c *gin.Context) {
	instructors, err := h.catalog.Instructors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors)
}

// Courses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Param status query string false "pending, approved or denied"
// @Success 200 {array} models.Course
// @Failure 400 {object} response.ErrorBody
// @Router /classes [get]
func (h *CatalogHandler) Courses(c *gin.Context) {
	courses, err := h.catalog.Courses(c.Request.Context(), models.CourseStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}
