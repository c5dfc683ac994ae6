package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/repository"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
)

type seatRepository interface {
	IncrementEnrollment(ctx context.Context, id string) (*models.Course, error)
}

type paymentClaimer interface {
	ClaimForEnrollment(ctx context.Context, email, courseID string) (string, error)
	ExistsForCourse(ctx context.Context, email, courseID string) (bool, error)
}

// EnrollmentService reserves seats after payment. Every payment buys exactly
// one seat.
type EnrollmentService struct {
	tx       txRunner
	courses  seatRepository
	payments paymentClaimer
	catalog  *CatalogService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(tx txRunner, courses seatRepository, payments paymentClaimer, catalog *CatalogService, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{tx: tx, courses: courses, payments: payments, catalog: catalog, metrics: metrics, logger: logger}
}

// Complete takes one seat of the course. Admins enroll freely; anyone else
// spends one unspent payment for the course in the same transaction that
// takes the seat.
func (s *EnrollmentService) Complete(ctx context.Context, actor Actor, courseID string) (*models.WriteResult, error) {
	var err error
	if actor.IsAdmin() {
		_, err = s.Increment(ctx, courseID)
	} else {
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			paymentID, err := s.payments.ClaimForEnrollment(txCtx, actor.Email, courseID)
			if err != nil {
				return s.claimError(txCtx, actor, courseID, err)
			}
			if _, err := s.Increment(txCtx, courseID); err != nil {
				return err
			}
			s.logger.Info("payment spent on enrollment", zap.String("payment_id", paymentID), zap.String("course_id", courseID))
			return nil
		})
	}
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	s.catalog.Invalidate(ctx)
	return &models.WriteResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *EnrollmentService) claimError(ctx context.Context, actor Actor, courseID string, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify payment")
	}
	paid, err := s.payments.ExistsForCourse(ctx, actor.Email, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify payment")
	}
	if paid {
		return appErrors.Clone(appErrors.ErrConflict, "payment already used for enrollment")
	}
	return appErrors.Clone(appErrors.ErrForbidden, "no payment recorded for this course")
}

// Increment atomically moves one seat from available to enrolled. It joins a
// transaction carried by ctx.
func (s *EnrollmentService) Increment(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.IncrementEnrollment(ctx, courseID)
	switch {
	case err == nil:
		s.metrics.RecordEnrollment(EnrollmentOutcomeEnrolled)
		return course, nil
	case errors.Is(err, sql.ErrNoRows):
		s.metrics.RecordEnrollment(EnrollmentOutcomeNotFound)
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	case errors.Is(err, repository.ErrSeatsExhausted):
		s.metrics.RecordEnrollment(EnrollmentOutcomeFull)
		return nil, appErrors.ErrNotEnoughSeats
	default:
		s.metrics.RecordEnrollment(EnrollmentOutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
}
