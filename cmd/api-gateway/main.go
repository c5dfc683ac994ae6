package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/langschool-api/api/swagger"
	"github.com/noah-isme/langschool-api/internal/handler"
	internalmiddleware "github.com/noah-isme/langschool-api/internal/middleware"
	"github.com/noah-isme/langschool-api/internal/repository"
	"github.com/noah-isme/langschool-api/internal/service"
	"github.com/noah-isme/langschool-api/pkg/cache"
	"github.com/noah-isme/langschool-api/pkg/config"
	"github.com/noah-isme/langschool-api/pkg/database"
	"github.com/noah-isme/langschool-api/pkg/jobs"
	"github.com/noah-isme/langschool-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/langschool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/langschool-api/pkg/middleware/requestid"
	"github.com/noah-isme/langschool-api/pkg/payment"
)

// @title Language School API
// @version 1.0.0
// @description Courses, carts, enrollment and payments for the language school
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	gateway := payment.NewStripeGateway(cfg.Payment.SecretKey)

	refunds := jobs.NewQueue("refunds", service.NewRefundHandler(gateway, metrics, logr), jobs.QueueConfig{
		Workers:    cfg.Refunds.Workers,
		MaxRetries: cfg.Refunds.MaxRetries,
		RetryDelay: cfg.Refunds.RetryDelay,
		Logger:     logr,
		DeadLetter: func(job jobs.Job, err error) {
			msg := "refund exhausted retries, manual action required"
			if errors.Is(err, jobs.ErrStopped) {
				msg = "refund not issued before shutdown, manual action required"
			}
			logr.Error(msg, zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Any("payload", job.Payload), zap.Error(err))
		},
	})
	refunds.Start(context.Background())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	cartRepo := repository.NewCartRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTxManager(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "langschool", logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)

	auditSvc := service.NewAuditService(auditRepo, logr)
	tokenSvc := service.NewTokenService(validate, service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)
	catalogSvc := service.NewCatalogService(courseRepo, instructorRepo, cacheSvc, cfg.Cache.TTL, logr)
	courseSvc := service.NewCourseService(courseRepo, catalogSvc, auditSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(txManager, courseRepo, paymentRepo, catalogSvc, metrics, logr)
	cartSvc := service.NewCartService(cartRepo, courseRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, gateway, service.PaymentConfig{Currency: cfg.Payment.Currency}, validate, logr, nil, nil)
	checkoutSvc := service.NewCheckoutService(service.CheckoutDeps{
		Currency:   cfg.Payment.Currency,
		Tx:         txManager,
		Carts:      cartRepo,
		Payments:   paymentRepo,
		Enrollment: enrollmentSvc,
		Gateway:    gateway,
		Refunds:    refunds,
		Catalog:    catalogSvc,
		Audit:      auditSvc,
		Metrics:    metrics,
	}, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:    handler.NewAuthHandler(tokenSvc),
		Users:   handler.NewUserHandler(userSvc),
		Catalog: handler.NewCatalogHandler(catalogSvc),
		Courses: handler.NewCourseHandler(courseSvc, enrollmentSvc),
		Carts:   handler.NewCartHandler(cartSvc),
		Payment: handler.NewPaymentHandler(paymentSvc, checkoutSvc),
		Metrics: handler.NewMetricsHandler(metrics, db),
	}, tokenSvc, userSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
	refunds.Stop()
	logr.Info("server exited")
}
