package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/repository"
	"github.com/noah-isme/langschool-api/pkg/jobs"
	"github.com/noah-isme/langschool-api/pkg/payment"
)

type mockUserRepo struct {
	mu      sync.Mutex
	users   map[string]*models.User
	findErr error
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*models.User)}
	for i := range users {
		u := users[i]
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		m.users[strings.ToLower(u.Email)] = &u
	}
	return m
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, ok := m.users[key]; ok {
		return repository.ErrDuplicate
	}
	user.ID = uuid.NewString()
	clone := *user
	m.users[key] = &clone
	return nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role models.Role) (models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			prev := u.Role
			u.Role = role
			return prev, nil
		}
	}
	return models.RoleUnset, sql.ErrNoRows
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, u := range m.users {
		if u.ID == id {
			delete(m.users, k)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockUserRepo) idOf(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[strings.ToLower(email)].ID
}

type mockCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*models.Course
	lists   int
}

func newMockCourseRepo(courses ...models.Course) *mockCourseRepo {
	m := &mockCourseRepo{courses: make(map[string]*models.Course)}
	for i := range courses {
		c := courses[i]
		m.courses[c.ID] = &c
	}
	return m
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]models.Course, 0)
	for _, c := range m.courses {
		if filter.Email != "" && !strings.EqualFold(c.Email, filter.Email) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	clone := *course
	m.courses[course.ID] = &clone
	return nil
}

func (m *mockCourseRepo) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return 0, nil
	}
	c.Status = status
	return 1, nil
}

func (m *mockCourseRepo) SetFeedback(ctx context.Context, id, feedback string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return 0, nil
	}
	c.Feedback = &feedback
	return 1, nil
}

func (m *mockCourseRepo) Upsert(ctx context.Context, course *models.Course) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.courses[course.ID]
	if !ok {
		course.AvailableSeats = course.TotalSeats
		clone := *course
		m.courses[course.ID] = &clone
		return true, nil
	}
	if course.TotalSeats < existing.Enrollment {
		return false, repository.ErrSeatConstraint
	}
	existing.Name = course.Name
	existing.Instructor = course.Instructor
	existing.Image = course.Image
	existing.Price = course.Price
	existing.TotalSeats = course.TotalSeats
	existing.AvailableSeats = course.TotalSeats - existing.Enrollment
	*course = *existing
	return false, nil
}

func (m *mockCourseRepo) IncrementEnrollment(ctx context.Context, id string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if c.AvailableSeats < 1 {
		return nil, repository.ErrSeatsExhausted
	}
	c.AvailableSeats--
	c.Enrollment++
	clone := *c
	return &clone, nil
}

type mockInstructorRepo struct {
	instructors []models.Instructor
	calls       int
}

func (m *mockInstructorRepo) List(ctx context.Context) ([]models.Instructor, error) {
	m.calls++
	return m.instructors, nil
}

type mockCartRepo struct {
	mu        sync.Mutex
	items     map[string]*models.CartItem
	deleteErr error
}

func newMockCartRepo(items ...models.CartItem) *mockCartRepo {
	m := &mockCartRepo{items: make(map[string]*models.CartItem)}
	for i := range items {
		it := items[i]
		m.items[it.ID] = &it
	}
	return m
}

func (m *mockCartRepo) ListByEmail(ctx context.Context, email string) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CartItem, 0)
	for _, it := range m.items {
		if strings.EqualFold(it.Email, email) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *mockCartRepo) FindByID(ctx context.Context, id string) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *it
	return &clone, nil
}

func (m *mockCartRepo) Create(ctx context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if strings.EqualFold(it.Email, item.Email) && it.CourseID == item.CourseID {
			return repository.ErrDuplicate
		}
	}
	item.ID = uuid.NewString()
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *mockCartRepo) Delete(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	if _, ok := m.items[id]; !ok {
		return 0, nil
	}
	delete(m.items, id)
	return 1, nil
}

type mockPaymentRepo struct {
	mu        sync.Mutex
	records   []models.PaymentRecord
	createErr error
}

func (m *mockPaymentRepo) ListByEmail(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PaymentRecord, 0)
	for _, r := range m.records {
		if strings.EqualFold(r.Email, email) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			clone := r
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, record *models.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.records {
		if r.TransactionID == record.TransactionID {
			return repository.ErrDuplicate
		}
	}
	record.ID = uuid.NewString()
	m.records = append(m.records, *record)
	return nil
}

func (m *mockPaymentRepo) ClaimForEnrollment(ctx context.Context, email, courseID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		r := &m.records[i]
		if strings.EqualFold(r.Email, email) && r.CourseID == courseID && r.EnrolledAt == nil {
			now := time.Now().UTC()
			r.EnrolledAt = &now
			return r.ID, nil
		}
	}
	return "", sql.ErrNoRows
}

func (m *mockPaymentRepo) ExistsForCourse(ctx context.Context, email, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if strings.EqualFold(r.Email, email) && r.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

type mockAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type mockTx struct {
	runs int
}

func (m *mockTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.runs++
	return fn(ctx)
}

type mockGateway struct {
	intents   map[string]*payment.Intent
	created   []payment.IntentRequest
	refunded  []string
	createErr error
	refundErr error
}

func (m *mockGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, req)
	return &payment.Intent{ID: "pi_new", ClientSecret: "pi_new_secret", AmountMinor: req.AmountMinor, Currency: req.Currency, Status: payment.StatusRequiresPayment}, nil
}

func (m *mockGateway) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	intent, ok := m.intents[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return intent, nil
}

func (m *mockGateway) Refund(ctx context.Context, intentID, reason string) (*payment.Refund, error) {
	if m.refundErr != nil {
		return nil, m.refundErr
	}
	m.refunded = append(m.refunded, intentID)
	return &payment.Refund{ID: "re_" + intentID, IntentID: intentID, Status: "succeeded"}, nil
}

type mockQueue struct {
	jobs []jobs.Job
	err  error
}

func (m *mockQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

var errBoom = errors.New("boom")
