package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/langschool-api/internal/models"
)

// InstructorRepository reads instructor profiles.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns every instructor, most active first.
func (r *InstructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	const query = `SELECT id, name, email, image, num_classes, class_names, created_at FROM instructors ORDER BY num_classes DESC, name ASC`
	instructors := make([]models.Instructor, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}
