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

const userColumns = `id, email, name, image, role, created_at, updated_at`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// List returns every user ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	users := make([]models.User, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts a new user. ErrDuplicate is returned when the email is taken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, name, image, role, created_at, updated_at) VALUES (:id, :email, :name, :image, :role, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, user); err != nil {
		if mapped := mapUniqueViolation(err); errors.Is(mapped, ErrDuplicate) {
			return mapped
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateRole sets the role of a user and reports the role held before the
// change. sql.ErrNoRows is returned when the id is unknown.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.Role) (models.Role, error) {
	const query = `WITH prev AS (SELECT id, role FROM users WHERE id = $1 FOR UPDATE)
UPDATE users u SET role = $2, updated_at = $3 FROM prev WHERE u.id = prev.id RETURNING prev.role`
	var previous models.Role
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &previous, query, id, role, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RoleUnset, err
		}
		return models.RoleUnset, fmt.Errorf("update user role: %w", err)
	}
	return previous, nil
}

// Delete removes a user and returns the number of rows deleted.
func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user rows affected: %w", err)
	}
	return n, nil
}
