package handler

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/repository"
	"github.com/noah-isme/langschool-api/pkg/jobs"
	"github.com/noah-isme/langschool-api/pkg/payment"
)

// store is an in-memory stand-in for every repository the router touches.
type store struct {
	mu       sync.Mutex
	users    map[string]*models.User
	courses  map[string]*models.Course
	carts    map[string]*models.CartItem
	payments map[string]*models.PaymentRecord
	intents  map[string]*payment.Intent
	refunds  []jobs.Job
}

func newStore() *store {
	return &store{
		users:    map[string]*models.User{},
		courses:  map[string]*models.Course{},
		carts:    map[string]*models.CartItem{},
		payments: map[string]*models.PaymentRecord{},
		intents:  map[string]*payment.Intent{},
	}
}

func (s *store) addUser(email string, role models.Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[id] = &models.User{ID: id, Email: email, Role: role}
	return id
}

func (s *store) addCourse(c models.Course) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.courses[c.ID] = &c
	return c.ID
}

func (s *store) course(id string) models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.courses[id]
}

type userRepo struct{ *store }

func (r userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r userRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r userRepo) UpdateRole(ctx context.Context, id string, role models.Role) (models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.RoleUnset, sql.ErrNoRows
	}
	prev := u.Role
	u.Role = role
	return prev, nil
}

func (r userRepo) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

type courseRepo struct{ *store }

func (r courseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Course
	for _, c := range r.courses {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Email != "" && !strings.EqualFold(c.Email, filter.Email) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r courseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (r courseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = uuid.NewString()
	r.addCourse(*course)
	return nil
}

func (r courseRepo) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return 0, nil
	}
	c.Status = status
	return 1, nil
}

func (r courseRepo) SetFeedback(ctx context.Context, id, feedback string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return 0, nil
	}
	c.Feedback = &feedback
	return 1, nil
}

func (r courseRepo) Upsert(ctx context.Context, course *models.Course) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.courses[course.ID]
	if ok {
		course.Enrollment = existing.Enrollment
		course.Status = existing.Status
	}
	course.AvailableSeats = course.TotalSeats - course.Enrollment
	clone := *course
	r.courses[course.ID] = &clone
	return !ok, nil
}

func (r courseRepo) IncrementEnrollment(ctx context.Context, id string) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if c.AvailableSeats < 1 {
		return nil, repository.ErrSeatsExhausted
	}
	c.Enrollment++
	c.AvailableSeats--
	clone := *c
	return &clone, nil
}

type instructorRepo struct{}

func (instructorRepo) List(ctx context.Context) ([]models.Instructor, error) {
	return []models.Instructor{{ID: uuid.NewString(), Name: "Lucia", Email: "lucia@x.com"}}, nil
}

type cartRepo struct{ *store }

func (r cartRepo) ListByEmail(ctx context.Context, email string) ([]models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CartItem
	for _, item := range r.carts {
		if strings.EqualFold(item.Email, email) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r cartRepo) FindByID(ctx context.Context, id string) (*models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.carts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (r cartRepo) Create(ctx context.Context, item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.carts {
		if strings.EqualFold(existing.Email, item.Email) && existing.CourseID == item.CourseID {
			return repository.ErrDuplicate
		}
	}
	item.ID = uuid.NewString()
	clone := *item
	r.carts[item.ID] = &clone
	return nil
}

func (r cartRepo) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[id]; !ok {
		return 0, nil
	}
	delete(r.carts, id)
	return 1, nil
}

type paymentRepo struct{ *store }

func (r paymentRepo) ListByEmail(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentRecord
	for _, p := range r.payments {
		if strings.EqualFold(p.Email, email) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r paymentRepo) FindByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (r paymentRepo) ExistsForCourse(ctx context.Context, email, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if strings.EqualFold(p.Email, email) && p.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r paymentRepo) ClaimForEnrollment(ctx context.Context, email, courseID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if strings.EqualFold(p.Email, email) && p.CourseID == courseID && p.EnrolledAt == nil {
			now := time.Now().UTC()
			p.EnrolledAt = &now
			return p.ID, nil
		}
	}
	return "", sql.ErrNoRows
}

func (r paymentRepo) Create(ctx context.Context, record *models.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionID == record.TransactionID {
			return repository.ErrDuplicate
		}
	}
	record.ID = uuid.NewString()
	record.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clone := *record
	r.payments[record.ID] = &clone
	return nil
}

type fakeGateway struct{ *store }

func (g fakeGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if req.AmountMinor <= 0 {
		return nil, payment.ErrInvalidAmount
	}
	return &payment.Intent{ID: "pi_new", ClientSecret: "pi_new_secret", AmountMinor: req.AmountMinor, Currency: req.Currency}, nil
}

func (g fakeGateway) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return intent, nil
}

type inlineTx struct{}

func (inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type refundSink struct{ *store }

func (q refundSink) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.refunds = append(q.refunds, job)
	return nil
}
