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

type cartRepository interface {
	ListByEmail(ctx context.Context, email string) ([]models.CartItem, error)
	FindByID(ctx context.Context, id string) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, id string) (int64, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CartService manages course selections awaiting payment.
type CartService struct {
	repo      cartRepository
	courses   courseFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCartService constructs a CartService.
func NewCartService(repo cartRepository, courses courseFinder, validate *validator.Validate, logger *zap.Logger) *CartService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns the cart of email.
func (s *CartService) List(ctx context.Context, email string) ([]models.CartItem, error) {
	items, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cart")
	}
	return items, nil
}

// Add places an approved course in the caller's cart.
func (s *CartService) Add(ctx context.Context, actor Actor, req dto.AddCartRequest) (*models.WriteResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cart payload")
	}
	if !actor.Owns(req.Email) {
		return nil, appErrors.ErrForbidden
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course")
	}
	if course.Status != models.CourseStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is not open for enrollment")
	}

	item := &models.CartItem{
		Email:      req.Email,
		CourseID:   course.ID,
		Name:       course.Name,
		Image:      course.Image,
		Instructor: course.Instructor,
		Price:      course.Price,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already in cart")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add to cart")
	}
	return models.Inserted(item.ID), nil
}

// Remove deletes a cart item owned by the caller.
func (s *CartService) Remove(ctx context.Context, actor Actor, id string) (*models.WriteResult, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cart item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch cart item")
	}
	if !actor.OwnsOrAdmin(item.Email) {
		return nil, appErrors.ErrForbidden
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove cart item")
	}
	return models.Deleted(n), nil
}
