package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/langschool-api/internal/dto"
	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/repository"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) (int64, error)
	SetFeedback(ctx context.Context, id, feedback string) (int64, error)
	Upsert(ctx context.Context, course *models.Course) (bool, error)
}

// CourseService manages the course lifecycle: teacher submission, admin
// review and edits.
type CourseService struct {
	repo      courseRepository
	catalog   *CatalogService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, catalog *CatalogService, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, catalog: catalog, audit: audit, validator: validate, logger: logger}
}

// ListByInstructor returns the courses owned by email.
func (s *CourseService) ListByInstructor(ctx context.Context, email string) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, models.CourseFilter{Email: email})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course")
	}
	return course, nil
}

// Create submits a course for review. The caller becomes its owner.
func (s *CourseService) Create(ctx context.Context, actor Actor, req dto.CourseRequest) (*models.WriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	seats := req.Seats()
	course := &models.Course{
		Name:           strings.TrimSpace(req.Name),
		Instructor:     req.Instructor,
		Email:          actor.Email,
		Image:          req.Image,
		Price:          req.Price,
		TotalSeats:     seats,
		AvailableSeats: seats,
		Status:         models.CourseStatusPending,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrSeatConstraint) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "seat counts out of range")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.catalog.Invalidate(ctx)
	return models.Inserted(course.ID), nil
}

// Approve marks a course approved.
func (s *CourseService) Approve(ctx context.Context, actor Actor, id string) (*models.WriteResult, error) {
	return s.setStatus(ctx, actor, id, models.CourseStatusApproved)
}

// Deny marks a course denied.
func (s *CourseService) Deny(ctx context.Context, actor Actor, id string) (*models.WriteResult, error) {
	return s.setStatus(ctx, actor, id, models.CourseStatusDenied)
}

func (s *CourseService) setStatus(ctx context.Context, actor Actor, id string, status models.CourseStatus) (*models.WriteResult, error) {
	n, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}
	if n == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.catalog.Invalidate(ctx)
	s.audit.Record(ctx, actor, models.AuditActionCourseStatus, "courses", id, map[string]string{"status": string(status)})
	return &models.WriteResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
}

// Update replaces a course owned by the caller, creating it when the id is
// unknown. Enrollment is preserved and available seats recomputed from it.
func (s *CourseService) Update(ctx context.Context, actor Actor, id string, req dto.CourseRequest) (*models.WriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	owner := actor.Email
	existing, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		if !actor.OwnsOrAdmin(existing.Email) {
			return nil, appErrors.ErrForbidden
		}
		if req.Seats() < existing.Enrollment {
			return nil, appErrors.Clone(appErrors.ErrValidation, "total seats cannot be lower than current enrollment")
		}
		owner = existing.Email
	case errors.Is(err, sql.ErrNoRows):
		if actor.Role != models.RoleTeacher && !actor.IsAdmin() {
			return nil, appErrors.ErrForbidden
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course")
	}

	course := &models.Course{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Instructor: req.Instructor,
		Email:      owner,
		Image:      req.Image,
		Price:      req.Price,
		TotalSeats: req.Seats(),
		Status:     models.CourseStatusPending,
	}
	inserted, err := s.repo.Upsert(ctx, course)
	if err != nil {
		if errors.Is(err, repository.ErrSeatConstraint) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "total seats cannot be lower than current enrollment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course")
	}
	s.catalog.Invalidate(ctx)

	if inserted {
		return &models.WriteResult{Acknowledged: true, UpsertedID: course.ID}, nil
	}
	return &models.WriteResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

// SetFeedback attaches admin feedback to an existing course.
func (s *CourseService) SetFeedback(ctx context.Context, actor Actor, id string, req dto.FeedbackRequest) (*models.WriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}
	n, err := s.repo.SetFeedback(ctx, id, req.Feedback)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}
	if n == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.catalog.Invalidate(ctx)
	return &models.WriteResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
}
