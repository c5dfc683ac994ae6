package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/langschool-api/internal/dto"
	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/repository"
	appErrors "github.com/noah-isme/langschool-api/pkg/errors"
	"github.com/noah-isme/langschool-api/pkg/jobs"
	"github.com/noah-isme/langschool-api/pkg/payment"
)

// RefundJobType identifies compensating refund jobs.
const RefundJobType = "payment.refund"

// RefundPayload describes a captured payment that must be returned.
type RefundPayload struct {
	IntentID string
	Email    string
	CourseID string
	Reason   string
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type checkoutCartRepository interface {
	FindByID(ctx context.Context, id string) (*models.CartItem, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type paymentWriter interface {
	Create(ctx context.Context, record *models.PaymentRecord) error
}

type intentFetcher interface {
	GetIntent(ctx context.Context, id string) (*payment.Intent, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

var errCartConsumed = errors.New("cart item already checked out")

// CheckoutService turns a paid cart item into an enrollment in one unit of
// work. When the unit fails after the provider captured funds, a refund is
// queued.
type CheckoutService struct {
	currency   string
	tx         txRunner
	carts      checkoutCartRepository
	payments   paymentWriter
	enrollment *EnrollmentService
	gateway    intentFetcher
	refunds    jobEnqueuer
	catalog    *CatalogService
	audit      *AuditService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// CheckoutDeps groups the collaborators of CheckoutService.
type CheckoutDeps struct {
	// Currency every checked out intent must be charged in. Defaults to usd.
	Currency   string
	Tx         txRunner
	Carts      checkoutCartRepository
	Payments   paymentWriter
	Enrollment *EnrollmentService
	Gateway    intentFetcher
	Refunds    jobEnqueuer
	Catalog    *CatalogService
	Audit      *AuditService
	Metrics    *MetricsService
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(deps CheckoutDeps, validate *validator.Validate, logger *zap.Logger) *CheckoutService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Currency == "" {
		deps.Currency = "usd"
	}
	return &CheckoutService{
		currency:   deps.Currency,
		tx:         deps.Tx,
		carts:      deps.Carts,
		payments:   deps.Payments,
		enrollment: deps.Enrollment,
		gateway:    deps.Gateway,
		refunds:    deps.Refunds,
		catalog:    deps.Catalog,
		audit:      deps.Audit,
		metrics:    deps.Metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Checkout verifies the payment intent for a cart item and, in a single
// transaction, takes a seat, records the payment and clears the cart item.
func (s *CheckoutService) Checkout(ctx context.Context, actor Actor, req dto.CheckoutRequest) (*models.PaymentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkout payload")
	}

	cart, err := s.carts.FindByID(ctx, req.CartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cart item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch cart item")
	}
	if !actor.Owns(cart.Email) {
		return nil, appErrors.ErrForbidden
	}

	intent, err := s.gateway.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		s.metrics.RecordCheckout("provider_error")
		return nil, providerError(err)
	}
	if err := verifyCapture(intent, actor, payment.ToMinorUnits(cart.Price), s.currency); err != nil {
		if errors.Is(err, appErrors.ErrPaymentNotCaptured) {
			s.metrics.RecordCheckout("not_captured")
		}
		return nil, err
	}

	cartID := cart.ID
	enrolledAt := time.Now().UTC()
	record := &models.PaymentRecord{
		Email:         cart.Email,
		CourseID:      cart.CourseID,
		CartID:        &cartID,
		CourseName:    cart.Name,
		Amount:        cart.Price,
		TransactionID: intent.ID,
		EnrolledAt:    &enrolledAt,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.enrollment.Increment(txCtx, cart.CourseID); err != nil {
			return err
		}
		if err := s.payments.Create(txCtx, record); err != nil {
			return err
		}
		n, err := s.carts.Delete(txCtx, cart.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errCartConsumed
		}
		return nil
	})
	if err != nil {
		return nil, s.compensate(actor, cart, intent, err)
	}

	s.metrics.RecordCheckout("completed")
	s.catalog.Invalidate(ctx)
	s.audit.Record(ctx, actor, models.AuditActionCheckout, "payments", record.ID, map[string]interface{}{
		"course_id":      record.CourseID,
		"amount":         record.Amount,
		"transaction_id": record.TransactionID,
	})
	return record, nil
}

// compensate maps a failed unit of work to the response error and queues a
// refund unless the intent was already recorded by an earlier checkout.
func (s *CheckoutService) compensate(actor Actor, cart *models.CartItem, intent *payment.Intent, cause error) error {
	if errors.Is(cause, repository.ErrDuplicate) {
		s.metrics.RecordCheckout("duplicate")
		return appErrors.Clone(appErrors.ErrConflict, "payment already recorded")
	}

	s.metrics.RecordCheckout("rolled_back")
	job := jobs.Job{
		Type: RefundJobType,
		Payload: RefundPayload{
			IntentID: intent.ID,
			Email:    cart.Email,
			CourseID: cart.CourseID,
			Reason:   cause.Error(),
		},
	}
	if err := s.refunds.Enqueue(job); err != nil {
		s.metrics.RecordRefund(RefundResultDropped)
		s.logger.Error("failed to queue refund for captured payment",
			zap.String("intent_id", intent.ID), zap.String("email", actor.Email), zap.Error(err))
	} else {
		s.metrics.RecordRefund(RefundResultQueued)
		s.logger.Warn("checkout rolled back, refund queued",
			zap.String("intent_id", intent.ID), zap.String("course_id", cart.CourseID), zap.Error(cause))
	}

	if errors.Is(cause, errCartConsumed) {
		return appErrors.Clone(appErrors.ErrConflict, errCartConsumed.Error())
	}
	var appErr *appErrors.Error
	if errors.As(cause, &appErr) {
		return appErr
	}
	return appErrors.Wrap(cause, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete checkout")
}

type refunder interface {
	Refund(ctx context.Context, intentID, reason string) (*payment.Refund, error)
}

// NewRefundHandler returns the job handler that issues compensating refunds.
// Errors are returned so the queue retries them; unknown intents are dropped.
func NewRefundHandler(gateway refunder, metrics *MetricsService, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(RefundPayload)
		if !ok {
			metrics.RecordRefund(RefundResultDropped)
			logger.Error("discarding refund job with unexpected payload", zap.String("job_id", job.ID), zap.String("payload_type", fmt.Sprintf("%T", job.Payload)))
			return nil
		}

		refund, err := gateway.Refund(ctx, payload.IntentID, payload.Reason)
		if err != nil {
			if errors.Is(err, payment.ErrNotFound) {
				metrics.RecordRefund(RefundResultDropped)
				logger.Error("refund target not found", zap.String("intent_id", payload.IntentID), zap.Error(err))
				return nil
			}
			metrics.RecordRefund(RefundResultFailed)
			return fmt.Errorf("refund %s: %w", payload.IntentID, err)
		}

		metrics.RecordRefund(RefundResultSucceeded)
		logger.Info("refund issued",
			zap.String("intent_id", payload.IntentID),
			zap.String("refund_id", refund.ID),
			zap.String("email", payload.Email))
		return nil
	}
}
