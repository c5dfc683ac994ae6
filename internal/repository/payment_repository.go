package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/langschool-api/internal/models"
)

const paymentColumns = `id, email, course_id, cart_id, course_name, amount, transaction_id, enrolled_at, created_at`

// PaymentRepository persists payment records. Records are never updated.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ListByEmail returns the payment history of a user, newest first.
func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE LOWER(email) = LOWER($1) ORDER BY created_at DESC`
	records := make([]models.PaymentRecord, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &records, query, email); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return records, nil
}

// FindByID returns a payment record.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var record models.PaymentRecord
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &record, nil
}

// ExistsForCourse reports whether the user has any payment for the course,
// spent or not.
func (r *PaymentRepository) ExistsForCourse(ctx context.Context, email, courseID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM payments WHERE LOWER(email) = LOWER($1) AND course_id = $2)`
	var exists bool
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &exists, query, email, courseID); err != nil {
		return false, fmt.Errorf("check payment exists: %w", err)
	}
	return exists, nil
}

// ClaimForEnrollment marks the oldest unspent payment of the user for the
// course as spent and returns its id. sql.ErrNoRows is returned when none is
// left. Run it in the transaction that takes the seat so a failed seat
// update releases the claim.
func (r *PaymentRepository) ClaimForEnrollment(ctx context.Context, email, courseID string) (string, error) {
	const query = `UPDATE payments SET enrolled_at = $3
WHERE id = (
    SELECT id FROM payments
    WHERE LOWER(email) = LOWER($1) AND course_id = $2 AND enrolled_at IS NULL
    ORDER BY created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING id`
	var id string
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &id, query, email, courseID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("claim payment: %w", err)
	}
	return id, nil
}

// Create appends a payment record. ErrDuplicate is returned when the
// transaction id was already recorded.
func (r *PaymentRepository) Create(ctx context.Context, record *models.PaymentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO payments (id, email, course_id, cart_id, course_name, amount, transaction_id, enrolled_at, created_at)
VALUES (:id, :email, :course_id, :cart_id, :course_name, :amount, :transaction_id, :enrolled_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, record); err != nil {
		if mapped := mapUniqueViolation(err); errors.Is(mapped, ErrDuplicate) {
			return mapped
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}
