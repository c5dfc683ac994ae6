package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/dto"
	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/service"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
	"github.com/noah-isme/langschool-api/pkg/response"
)

// CourseHandler manages instructor courses and their review workflow.
type CourseHandler struct {
	courses    *service.CourseService
	enrollment *service.EnrollmentService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(courses *service.CourseService, enrollment *service.EnrollmentService) *CourseHandler {
	return &CourseHandler{courses: courses, enrollment: enrollment}
}

// ListByInstructor godoc
// @Summary List an instructor's courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param email path string true "Instructor email"
// @Success 200 {array} models.Course
// @Failure 403 {object} response.ErrorBody
// @Router /classes/{email} [get]
func (h *CourseHandler) ListByInstructor(c *gin.Context) {
	courses, err := h.courses.ListByInstructor(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Create godoc
// @Summary Create course
// @Description The caller becomes the instructor; the course starts pending
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CourseRequest true "Course"
// @Success 201 {object} models.WriteResult
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /classes [post]
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.courses.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Approve godoc
// @Summary Approve course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} models.WriteResult
// @Failure 404 {object} response.ErrorBody
// @Router /classes/{id} [patch]
func (h *CourseHandler) Approve(c *gin.Context) {
	h.review(c, h.courses.Approve)
}

// Deny godoc
// @Summary Deny course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} models.WriteResult
// @Failure 404 {object} response.ErrorBody
// @Router /classes/deny/{id} [patch]
func (h *CourseHandler) Deny(c *gin.Context) {
	h.review(c, h.courses.Deny)
}

func (h *CourseHandler) review(c *gin.Context, apply func(ctx context.Context, actor service.Actor, id string) (*models.WriteResult, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := apply(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Update godoc
// @Summary Replace course
// @Description Full update; an unknown id creates the course owned by the caller
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body dto.CourseRequest true "Course"
// @Success 200 {object} models.WriteResult
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /classes/update/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.courses.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Feedback godoc
// @Summary Attach review feedback
// @Description Body is either {"feedback": "..."} or a bare JSON string
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body dto.FeedbackRequest true "Feedback"
// @Success 200 {object} models.WriteResult
// @Failure 404 {object} response.ErrorBody
// @Router /classes/feedback/{id} [put]
func (h *CourseHandler) Feedback(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	req, err := decodeFeedback(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload"))
		return
	}

	result, err := h.courses.SetFeedback(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func decodeFeedback(c *gin.Context) (dto.FeedbackRequest, error) {
	var req dto.FeedbackRequest
	raw, err := c.GetRawData()
	if err != nil {
		return req, err
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		req.Feedback = text
		return req, nil
	}
	err = json.Unmarshal(raw, &req)
	return req, err
}

// Enroll godoc
// @Summary Take a seat
// @Description Atomically moves one seat from available to enrolled, spending one unspent payment unless the caller is an admin
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} models.WriteResult
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /classes/enrollment/{id} [patch]
func (h *CourseHandler) Enroll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.enrollment.Complete(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
