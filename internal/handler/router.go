package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langschool-api/internal/middleware"
	"github.com/noah-isme/langschool-api/internal/models"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Catalog *CatalogHandler
	Courses *CourseHandler
	Carts   *CartHandler
	Payment *PaymentHandler
	Metrics *MetricsHandler
}

// RegisterRoutes mounts the API on r. Every mutating route requires a bearer
// token; ownership and role checks run before the handler.
func RegisterRoutes(r gin.IRouter, h Handlers, verifier middleware.TokenVerifier, roles middleware.RoleLookup) {
	r.GET("/", h.Metrics.Root)
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	r.POST("/jwt", h.Auth.Issue)
	r.GET("/instructors", h.Catalog.Instructors)
	r.GET("/classes", h.Catalog.Courses)

	auth := r.Group("/", middleware.JWT(verifier))

	adminOnly := middleware.RequireRole(roles, models.RoleAdmin)
	teacherOnly := middleware.RequireRole(roles, models.RoleTeacher, models.RoleAdmin)
	withRole := middleware.ResolveRole(roles)

	// users
	auth.GET("/users", adminOnly, h.Users.List)
	auth.POST("/users", withRole, h.Users.Create)
	for _, role := range []models.Role{models.RoleStudent, models.RoleAdmin, models.RoleTeacher} {
		auth.GET("/users/"+string(role)+"/:email", middleware.SelfEmail(middleware.EmailParam("email")), h.Users.RoleStatus(role))
	}
	auth.PATCH("/users/admin/:id", adminOnly, h.Users.Promote(models.RoleAdmin))
	auth.PATCH("/users/teacher/:id", adminOnly, h.Users.Promote(models.RoleTeacher))
	auth.DELETE("/user/:id", adminOnly, h.Users.Delete)

	// courses
	auth.GET("/classes/:email", middleware.SelfEmail(middleware.EmailParam("email")), teacherOnly, h.Courses.ListByInstructor)
	auth.POST("/classes", teacherOnly, h.Courses.Create)
	auth.PATCH("/classes/:id", adminOnly, h.Courses.Approve)
	auth.PATCH("/classes/deny/:id", adminOnly, h.Courses.Deny)
	auth.PATCH("/classes/enrollment/:id", withRole, h.Courses.Enroll)
	auth.PUT("/classes/update/:id", withRole, h.Courses.Update)
	auth.PUT("/classes/feedback/:id", adminOnly, h.Courses.Feedback)

	// carts
	auth.GET("/carts", middleware.SelfEmail(middleware.EmailQuery("email")), h.Carts.List)
	auth.POST("/carts", h.Carts.Add)
	auth.DELETE("/carts/:id", withRole, h.Carts.Remove)

	// payments
	selfOrAdmin := middleware.SelfOrRole(middleware.EmailQuery("email"), roles, models.RoleAdmin)
	auth.GET("/payment", selfOrAdmin, h.Payment.List)
	auth.POST("/payment", h.Payment.Record)
	auth.GET("/payment/receipt/:id", withRole, h.Payment.Receipt)
	auth.GET("/payment/export", selfOrAdmin, h.Payment.Export)
	auth.POST("/create-payment-intent", h.Payment.CreateIntent)
	auth.POST("/checkout", h.Payment.Checkout)
}
