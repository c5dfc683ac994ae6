package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/langschool-api/internal/models"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
)

const (
	catalogCachePattern  = "catalog:*"
	instructorsCacheKey  = "catalog:instructors"
	coursesCacheKeyStem  = "catalog:classes:"
	coursesCacheAllLabel = "all"
)

type courseLister interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type instructorLister interface {
	List(ctx context.Context) ([]models.Instructor, error)
}

// CatalogService serves the public course and instructor listings through
// the cache.
type CatalogService struct {
	courses     courseLister
	instructors instructorLister
	cache       *CacheService
	ttl         time.Duration
	logger      *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(courses courseLister, instructors instructorLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, instructors: instructors, cache: cache, ttl: ttl, logger: logger}
}

// Instructors lists instructor profiles.
func (s *CatalogService) Instructors(ctx context.Context) ([]models.Instructor, error) {
	var cached []models.Instructor
	if hit, _ := s.cache.Get(ctx, instructorsCacheKey, &cached); hit {
		return cached, nil
	}

	instructors, err := s.instructors.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	_ = s.cache.Set(ctx, instructorsCacheKey, instructors, s.ttl)
	return instructors, nil
}

// Courses lists courses, optionally restricted to one review status.
func (s *CatalogService) Courses(ctx context.Context, status models.CourseStatus) ([]models.Course, error) {
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course status")
	}
	label := string(status)
	if label == "" {
		label = coursesCacheAllLabel
	}
	key := coursesCacheKeyStem + label

	var cached []models.Course
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	courses, err := s.courses.List(ctx, models.CourseFilter{Status: status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	_ = s.cache.Set(ctx, key, courses, s.ttl)
	return courses, nil
}

// Invalidate drops every cached catalog listing.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, catalogCachePattern); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}
