package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/langschool-api/internal/models"
	"github.com/noah-isme/langschool-api/internal/service"
	"github.com/noah-isme/langschool-api/pkg/payment"
	"github.com/noah-isme/langschool-api/pkg/response"
)

type testServer struct {
	router *gin.Engine
	store  *store
	tokens *service.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := newStore()
	validate := validator.New()
	tokens := service.NewTokenService(validate, service.TokenConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "test"})

	users := service.NewUserService(userRepo{st}, nil, validate, nil)
	catalog := service.NewCatalogService(courseRepo{st}, instructorRepo{}, nil, time.Minute, nil)
	courses := service.NewCourseService(courseRepo{st}, catalog, nil, validate, nil)
	enrollment := service.NewEnrollmentService(inlineTx{}, courseRepo{st}, paymentRepo{st}, catalog, nil, nil)
	carts := service.NewCartService(cartRepo{st}, courseRepo{st}, validate, nil)
	payments := service.NewPaymentService(paymentRepo{st}, fakeGateway{st}, service.PaymentConfig{}, validate, nil, nil, nil)
	checkout := service.NewCheckoutService(service.CheckoutDeps{
		Tx:         inlineTx{},
		Carts:      cartRepo{st},
		Payments:   paymentRepo{st},
		Enrollment: enrollment,
		Gateway:    fakeGateway{st},
		Refunds:    refundSink{st},
		Catalog:    catalog,
	}, validate, nil)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:    NewAuthHandler(tokens),
		Users:   NewUserHandler(users),
		Catalog: NewCatalogHandler(catalog),
		Courses: NewCourseHandler(courses, enrollment),
		Carts:   NewCartHandler(carts),
		Payment: NewPaymentHandler(payments, checkout),
		Metrics: NewMetricsHandler(service.NewMetricsService(), nil),
	}, tokens, users)

	return &testServer{router: r, store: st, tokens: tokens}
}

func (s *testServer) token(t *testing.T, email string) string {
	t.Helper()
	res, err := s.tokens.Issue(models.IdentityClaim{Email: email})
	require.NoError(t, err)
	return res.Token
}

func (s *testServer) do(t *testing.T, method, target, email string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, email))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RootMessage, w.Body.String())

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", "", nil).Code)
}

func TestIssueToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/jwt", "", map[string]string{"email": "alice@x.com", "name": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)
	var res models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	claims, err := s.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", claims.Email)

	w = s.do(t, http.MethodPost, "/jwt", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleStatusIsSelfOnly(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("alice@x.com", models.RoleStudent)
	s.store.addUser("bob@x.com", models.RoleAdmin)

	w := s.do(t, http.MethodGet, "/users/student/alice@x.com", "bob@x.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden access", decodeError(t, w).Message)

	w = s.do(t, http.MethodGet, "/users/student/alice@x.com", "alice@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"student":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/users/admin/alice@x.com", "alice@x.com", nil)
	assert.JSONEq(t, `{"admin":false}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/users/teacher/alice@x.com", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized access", decodeError(t, w).Message)
}

func TestCreateUserTwiceReportsExisting(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]string{"email": "carol@x.com", "name": "Carol"}

	w := s.do(t, http.MethodPost, "/users", "carol@x.com", payload)
	require.Equal(t, http.StatusCreated, w.Code)
	var result models.WriteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Acknowledged)
	assert.NotEmpty(t, result.InsertedID)

	w = s.do(t, http.MethodPost, "/users", "carol@x.com", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"user is exist"}`, w.Body.String())

	users, _ := userRepo{s.store}.List(context.Background())
	assert.Len(t, users, 1)
	assert.Equal(t, models.RoleStudent, users[0].Role)

	w = s.do(t, http.MethodPost, "/users", "mallory@x.com", map[string]string{"email": "dave@x.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPromoteIsAdminOnlyAndIdempotent(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("root@x.com", models.RoleAdmin)
	target := s.store.addUser("erin@x.com", models.RoleStudent)

	w := s.do(t, http.MethodPatch, "/users/admin/"+target, "erin@x.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPatch, "/users/admin/"+target, "root@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"modifiedCount":1`)

	w = s.do(t, http.MethodPatch, "/users/admin/"+target, "root@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"matchedCount":1`)
	assert.Contains(t, w.Body.String(), `"modifiedCount":0`)

	w = s.do(t, http.MethodPatch, "/users/teacher/"+uuid.NewString(), "root@x.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/users/teacher/not-a-uuid", "root@x.com", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/user/"+target, "root@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deletedCount":1`)
}

func TestCourseReviewFlow(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("root@x.com", models.RoleAdmin)
	s.store.addUser("tina@x.com", models.RoleTeacher)
	s.store.addUser("sam@x.com", models.RoleStudent)

	w := s.do(t, http.MethodPost, "/classes", "sam@x.com", map[string]interface{}{"name": "French A1", "total_seats": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/classes", "tina@x.com", map[string]interface{}{"name": "French A1", "price": 40, "total_seats": 5})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.WriteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.InsertedID
	require.NotEmpty(t, id)

	course := s.store.course(id)
	assert.Equal(t, "tina@x.com", course.Email)
	assert.Equal(t, models.CourseStatusPending, course.Status)
	assert.Equal(t, 5, course.AvailableSeats)

	w = s.do(t, http.MethodGet, "/classes/tina@x.com", "tina@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "French A1")

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPatch, "/classes/"+id, "tina@x.com", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/classes/"+id, "root@x.com", nil).Code)
	assert.Equal(t, models.CourseStatusApproved, s.store.course(id).Status)

	w = s.do(t, http.MethodGet, "/classes?status=approved", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/classes?status=bogus", "", nil).Code)

	w = s.do(t, http.MethodPut, "/classes/feedback/"+id, "root@x.com", `"needs a syllabus"`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, s.store.course(id).Feedback)
	assert.Equal(t, "needs a syllabus", *s.store.course(id).Feedback)

	w = s.do(t, http.MethodPut, "/classes/feedback/"+id, "root@x.com", map[string]string{"feedback": "looks good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "looks good", *s.store.course(id).Feedback)

	w = s.do(t, http.MethodPut, "/classes/feedback/"+uuid.NewString(), "root@x.com", `"orphan"`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/classes/deny/"+id, "root@x.com", nil).Code)
	assert.Equal(t, models.CourseStatusDenied, s.store.course(id).Status)
}

func TestUpdateCourseUpsertsForTeachers(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("tina@x.com", models.RoleTeacher)
	s.store.addUser("tom@x.com", models.RoleTeacher)
	id := s.store.addCourse(models.Course{Name: "German B1", Email: "tina@x.com", TotalSeats: 4, AvailableSeats: 1, Enrollment: 3, Status: models.CourseStatusApproved})

	w := s.do(t, http.MethodPut, "/classes/update/"+id, "tom@x.com", map[string]interface{}{"name": "Stolen", "total_seats": 10})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/classes/update/"+id, "tina@x.com", map[string]interface{}{"name": "German B1", "total_seats": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/classes/update/"+id, "tina@x.com", map[string]interface{}{"name": "German B1+", "total_seats": 6})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, s.store.course(id).AvailableSeats)
	assert.Equal(t, 3, s.store.course(id).Enrollment)

	fresh := uuid.NewString()
	w = s.do(t, http.MethodPut, "/classes/update/"+fresh, "tom@x.com", map[string]interface{}{"name": "Italian A2", "total_seats": 8})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"upsertedId":"`+fresh+`"`)
	assert.Equal(t, "tom@x.com", s.store.course(fresh).Email)
}

func TestEnrollmentRoute(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("root@x.com", models.RoleAdmin)
	s.store.addUser("sam@x.com", models.RoleStudent)
	id := s.store.addCourse(models.Course{Name: "Korean A1", TotalSeats: 1, AvailableSeats: 1, Status: models.CourseStatusApproved})

	w := s.do(t, http.MethodPatch, "/classes/enrollment/"+id, "sam@x.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPatch, "/classes/enrollment/"+id, "root@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, s.store.course(id).AvailableSeats)
	assert.Equal(t, 1, s.store.course(id).Enrollment)

	w = s.do(t, http.MethodPatch, "/classes/enrollment/"+id, "root@x.com", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_ENOUGH_SEATS", decodeError(t, w).Code)

	w = s.do(t, http.MethodPatch, "/classes/enrollment/"+uuid.NewString(), "root@x.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentSpendsEachPaymentOnce(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("sam@x.com", models.RoleStudent)
	id := s.store.addCourse(models.Course{Name: "Korean A2", Price: 40, TotalSeats: 5, AvailableSeats: 5, Status: models.CourseStatusApproved})
	s.store.intents["pi_paid"] = &payment.Intent{ID: "pi_paid", AmountMinor: 4000, Currency: "usd", Status: payment.StatusSucceeded, Metadata: map[string]string{"email": "sam@x.com"}}

	record := map[string]interface{}{"email": "sam@x.com", "course_id": id, "amount": 40, "transaction_id": "pi_paid"}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/payment", "sam@x.com", record).Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/classes/enrollment/"+id, "sam@x.com", nil).Code)
	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPatch, "/classes/enrollment/"+id, "sam@x.com", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", decodeError(t, w).Code)
	}
	assert.Equal(t, 4, s.store.course(id).AvailableSeats)
	assert.Equal(t, 1, s.store.course(id).Enrollment)
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("sam@x.com", models.RoleStudent)
	s.store.addUser("root@x.com", models.RoleAdmin)
	approved := s.store.addCourse(models.Course{Name: "Spanish A1", Price: 60, TotalSeats: 3, AvailableSeats: 3, Status: models.CourseStatusApproved})
	pending := s.store.addCourse(models.Course{Name: "Draft", Status: models.CourseStatusPending})

	body := map[string]string{"email": "sam@x.com", "course_id": approved}
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/carts", "", body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/carts", "eve@x.com", body).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/carts", "sam@x.com", body).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/carts", "sam@x.com", body).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/carts", "sam@x.com", map[string]string{"email": "sam@x.com", "course_id": pending}).Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/carts?email=sam@x.com", "eve@x.com", nil).Code)
	w := s.do(t, http.MethodGet, "/carts?email=sam@x.com", "sam@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Spanish A1", items[0].Name)
	assert.Equal(t, 60.0, items[0].Price)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, "/carts/"+items[0].ID, "eve@x.com", nil).Code)
	w = s.do(t, http.MethodDelete, "/carts/"+items[0].ID, "root@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deletedCount":1`)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/carts/"+items[0].ID, "root@x.com", nil).Code)
}

func TestPaymentRoutes(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("sam@x.com", models.RoleStudent)
	s.store.addUser("root@x.com", models.RoleAdmin)
	course := uuid.NewString()
	s.store.intents["pi_1"] = &payment.Intent{ID: "pi_1", AmountMinor: 6000, Currency: "usd", Status: payment.StatusSucceeded, Metadata: map[string]string{"email": "sam@x.com"}}
	s.store.intents["pi_pending"] = &payment.Intent{ID: "pi_pending", AmountMinor: 6000, Currency: "usd", Status: payment.StatusRequiresPayment}

	record := map[string]interface{}{"email": "sam@x.com", "course_id": course, "course_name": "Spanish A1", "amount": 60, "transaction_id": "pi_1"}
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/payment", "eve@x.com", record).Code)

	forged := map[string]interface{}{"email": "sam@x.com", "course_id": course, "amount": 60, "transaction_id": "pi_made_up"}
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/payment", "sam@x.com", forged).Code)
	forged["transaction_id"] = "pi_pending"
	w := s.do(t, http.MethodPost, "/payment", "sam@x.com", forged)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PAYMENT_NOT_CAPTURED", decodeError(t, w).Code)
	forged["transaction_id"], forged["amount"] = "pi_1", 0.5
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/payment", "sam@x.com", forged).Code)

	w = s.do(t, http.MethodPost, "/payment", "sam@x.com", record)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.WriteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	paymentID := created.InsertedID
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/payment", "sam@x.com", record).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/payment?email=sam@x.com", "sam@x.com", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/payment?email=sam@x.com", "root@x.com", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/payment?email=sam@x.com", "eve@x.com", nil).Code)

	w = s.do(t, http.MethodGet, "/payment/receipt/"+paymentID, "sam@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/payment/receipt/"+paymentID, "eve@x.com", nil).Code)

	w = s.do(t, http.MethodGet, "/payment/export?email=sam@x.com", "sam@x.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "payments.csv")
	assert.Contains(t, w.Body.String(), "pi_1")

	w = s.do(t, http.MethodPost, "/create-payment-intent", "sam@x.com", map[string]float64{"price": 19.99})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clientSecret":"pi_new_secret"}`, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/create-payment-intent", "sam@x.com", map[string]float64{"price": 0}).Code)
}

func TestCheckoutRoute(t *testing.T) {
	s := newTestServer(t)
	s.store.addUser("sam@x.com", models.RoleStudent)
	full := s.store.addCourse(models.Course{Name: "Full", Price: 50, Status: models.CourseStatusApproved})
	open := s.store.addCourse(models.Course{Name: "Open", Price: 50, TotalSeats: 2, AvailableSeats: 2, Status: models.CourseStatusApproved})

	s.store.carts["11111111-1111-4111-8111-111111111111"] = &models.CartItem{ID: "11111111-1111-4111-8111-111111111111", Email: "sam@x.com", CourseID: open, Name: "Open", Price: 50}
	s.store.carts["22222222-2222-4222-8222-222222222222"] = &models.CartItem{ID: "22222222-2222-4222-8222-222222222222", Email: "sam@x.com", CourseID: full, Name: "Full", Price: 50}
	s.store.intents["pi_ok"] = &payment.Intent{ID: "pi_ok", AmountMinor: 5000, Currency: "usd", Status: payment.StatusSucceeded}
	s.store.intents["pi_full"] = &payment.Intent{ID: "pi_full", AmountMinor: 5000, Currency: "usd", Status: payment.StatusSucceeded}
	s.store.intents["pi_eur"] = &payment.Intent{ID: "pi_eur", AmountMinor: 5000, Currency: "eur", Status: payment.StatusSucceeded}

	body := map[string]string{"cart_id": "11111111-1111-4111-8111-111111111111", "payment_intent_id": "pi_ok"}
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/checkout", "", body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/checkout", "eve@x.com", body).Code)

	w := s.do(t, http.MethodPost, "/checkout", "sam@x.com", map[string]string{"cart_id": "11111111-1111-4111-8111-111111111111", "payment_intent_id": "pi_eur"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PAYMENT_NOT_CAPTURED", decodeError(t, w).Code)
	assert.Equal(t, 2, s.store.course(open).AvailableSeats)

	w = s.do(t, http.MethodPost, "/checkout", "sam@x.com", body)
	require.Equal(t, http.StatusOK, w.Code)
	var record models.PaymentRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "pi_ok", record.TransactionID)
	assert.NotNil(t, record.EnrolledAt)
	assert.Equal(t, 1, s.store.course(open).AvailableSeats)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPatch, "/classes/enrollment/"+open, "sam@x.com", nil).Code)
	assert.Equal(t, 1, s.store.course(open).AvailableSeats)
	assert.NotContains(t, s.store.carts, "11111111-1111-4111-8111-111111111111")

	w = s.do(t, http.MethodPost, "/checkout", "sam@x.com", map[string]string{"cart_id": "22222222-2222-4222-8222-222222222222", "payment_intent_id": "pi_full"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_ENOUGH_SEATS", decodeError(t, w).Code)
	require.Len(t, s.store.refunds, 1)
	assert.Equal(t, service.RefundJobType, s.store.refunds[0].Type)
}
