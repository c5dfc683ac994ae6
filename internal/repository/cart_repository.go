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

const cartColumns = `id, email, course_id, name, image, instructor, price, created_at`

// CartRepository persists cart items.
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository constructs the repository.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// ListByEmail returns the cart of a user.
func (r *CartRepository) ListByEmail(ctx context.Context, email string) ([]models.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE LOWER(email) = LOWER($1) ORDER BY created_at ASC`
	items := make([]models.CartItem, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &items, query, email); err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

// FindByID returns a cart item.
func (r *CartRepository) FindByID(ctx context.Context, id string) (*models.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`
	var item models.CartItem
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return &item, nil
}

// Create inserts a cart item. ErrDuplicate is returned when the course is
// already in the user's cart.
func (r *CartRepository) Create(ctx context.Context, item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO carts (id, email, course_id, name, image, instructor, price, created_at)
VALUES (:id, :email, :course_id, :name, :image, :instructor, :price, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, item); err != nil {
		if mapped := mapUniqueViolation(err); errors.Is(mapped, ErrDuplicate) {
			return mapped
		}
		return fmt.Errorf("create cart item: %w", err)
	}
	return nil
}

// Delete removes a cart item and returns the number of rows deleted.
func (r *CartRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete cart item rows affected: %w", err)
	}
	return n, nil
}
