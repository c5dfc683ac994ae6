package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/langschool-api/internal/models"
)

const courseColumns = `id, name, instructor, email, image, price, total_seats, available_seats, enrollment, status, feedback, created_at, updated_at`

const checkViolation = "23514"

var (
	// ErrSeatsExhausted is returned when an enrollment finds no free seat.
	ErrSeatsExhausted = errors.New("no seats available")
	// ErrSeatConstraint is returned when a write would leave negative seats.
	ErrSeatConstraint = errors.New("seat counters out of range")
)

// CourseRepository provides database access for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter, newest first.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var conditions []string
	var args []interface{}
	if filter.Email != "" {
		args = append(args, filter.Email)
		conditions = append(conditions, fmt.Sprintf("LOWER(email) = LOWER($%d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + courseColumns + ` FROM courses`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	courses := make([]models.Course, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by its identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, name, instructor, email, image, price, total_seats, available_seats, enrollment, status, feedback, created_at, updated_at)
VALUES (:id, :name, :instructor, :email, :image, :price, :total_seats, :available_seats, :enrollment, :status, :feedback, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, course); err != nil {
		return fmt.Errorf("create course: %w", mapCheckViolation(err))
	}
	return nil
}

// UpdateStatus sets the review status and returns matched rows.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) (int64, error) {
	const query = `UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1`
	return r.execAffected(ctx, "update course status", query, id, status, time.Now().UTC())
}

// SetFeedback attaches admin feedback and returns matched rows.
func (r *CourseRepository) SetFeedback(ctx context.Context, id, feedback string) (int64, error) {
	const query = `UPDATE courses SET feedback = $2, updated_at = $3 WHERE id = $1`
	return r.execAffected(ctx, "set course feedback", query, id, feedback, time.Now().UTC())
}

// Upsert replaces the editable fields of a course or inserts it when the id
// is unknown. Enrollment is preserved and available seats recomputed from it.
// inserted reports whether a new row was created.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.Course) (inserted bool, err error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.Status == "" {
		course.Status = models.CourseStatusPending
	}

	query := `INSERT INTO courses AS c (id, name, instructor, email, image, price, total_seats, available_seats, enrollment, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7, 0, $8, $9, $9)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    instructor = EXCLUDED.instructor,
    image = EXCLUDED.image,
    price = EXCLUDED.price,
    total_seats = EXCLUDED.total_seats,
    available_seats = EXCLUDED.total_seats - c.enrollment,
    updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted, ` + prefixed("c", courseColumns)

	var row struct {
		Inserted bool `db:"inserted"`
		models.Course
	}
	if err = sqlx.GetContext(ctx, ext(ctx, r.db), &row, query,
		course.ID, course.Name, course.Instructor, course.Email, course.Image, course.Price, course.TotalSeats, course.Status, now); err != nil {
		return false, fmt.Errorf("upsert course: %w", mapCheckViolation(err))
	}
	*course = row.Course
	return row.Inserted, nil
}

// IncrementEnrollment takes one seat in a single conditional statement.
// sql.ErrNoRows is returned for an unknown course and ErrSeatsExhausted when
// the course is full.
func (r *CourseRepository) IncrementEnrollment(ctx context.Context, id string) (*models.Course, error) {
	query := `UPDATE courses SET enrollment = enrollment + 1, available_seats = available_seats - 1, updated_at = $2
WHERE id = $1 AND available_seats >= 1 RETURNING ` + courseColumns

	db := ext(ctx, r.db)
	var course models.Course
	err := sqlx.GetContext(ctx, db, &course, query, id, time.Now().UTC())
	if err == nil {
		return &course, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("increment enrollment: %w", err)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, db, &exists, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("check course exists: %w", err)
	}
	if !exists {
		return nil, sql.ErrNoRows
	}
	return nil, ErrSeatsExhausted
}

func (r *CourseRepository) execAffected(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	res, err := ext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return n, nil
}

func mapCheckViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == checkViolation {
		return ErrSeatConstraint
	}
	return err
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
