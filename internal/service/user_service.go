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

// UserExistsMessage is returned when registering an email twice.
const UserExistsMessage = "user is exist"

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.Role) (models.Role, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// UserService manages accounts and roles.
type UserService struct {
	repo      userRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Register creates the user on first sign-in. When the email already exists
// nothing is written and exists is true.
func (s *UserService) Register(ctx context.Context, actor Actor, req dto.CreateUserRequest) (result *models.WriteResult, exists bool, err error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !actor.OwnsOrAdmin(req.Email) {
		return nil, false, appErrors.ErrForbidden
	}
	role := req.Role
	if role == models.RoleUnset {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && !actor.IsAdmin() {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "only admins may assign elevated roles")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, true, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	user := &models.User{Email: req.Email, Name: req.Name, Image: req.Image, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, true, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return models.Inserted(user.ID), false, nil
}

// LookupRole returns the stored role for email. Unknown users have no role.
func (s *UserService) LookupRole(ctx context.Context, email string) (models.Role, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RoleUnset, nil
		}
		return models.RoleUnset, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role")
	}
	return user.Role, nil
}

// RoleStatus answers whether email holds role, keyed by the role name.
func (s *UserService) RoleStatus(ctx context.Context, email string, role models.Role) (models.RoleStatus, error) {
	current, err := s.LookupRole(ctx, email)
	if err != nil {
		return nil, err
	}
	return models.RoleStatus{string(role): current == role}, nil
}

// Promote sets the role of a user. Repeating a promotion is a no-op that
// still succeeds.
func (s *UserService) Promote(ctx context.Context, actor Actor, id string, role models.Role) (*models.WriteResult, error) {
	if role != models.RoleAdmin && role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role cannot be assigned")
	}
	previous, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	result := &models.WriteResult{Acknowledged: true, MatchedCount: 1}
	if previous != role {
		result.ModifiedCount = 1
		s.audit.Record(ctx, actor, models.AuditActionRolePromote, "users", id, map[string]string{"from": string(previous), "to": string(role)})
	}
	return result, nil
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) (*models.WriteResult, error) {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if n > 0 {
		s.audit.Record(ctx, actor, models.AuditActionUserDelete, "users", id, nil)
	}
	return models.Deleted(n), nil
}
