package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/campus/backend/internal/application/billing"
	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/infrastructure/cache"
	"github.com/campus/backend/internal/infrastructure/config"
	"github.com/campus/backend/internal/infrastructure/event"
	"github.com/campus/backend/internal/infrastructure/logger"
	"github.com/campus/backend/internal/infrastructure/persistence"
	"github.com/campus/backend/internal/infrastructure/scheduler"
	"github.com/campus/backend/internal/interfaces/http/handler"
	"github.com/campus/backend/internal/interfaces/http/middleware"
	"github.com/campus/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Campus Billing API
//	@version		1.0
//	@description	Tuition billing backend: student enrollment, payment allocation and cartera tracking

//	@contact.name	API Support
//	@contact.url	https://github.com/campus/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Campus Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	studentRepo := persistence.NewGormStudentAccountRepository(db.DB)
	programRepo := persistence.NewGormProgramRepository(db.DB)
	commitmentRepo := persistence.NewGormCommitmentRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Idempotency store backs both the allocation dedupe and the event
	// handlers; Redis when reachable, in-memory otherwise
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idemStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize event bus and audit trail
	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := event.NewIdempotentHandler(event.NewBillingAuditHandler(log), idemStore, log)
	eventBus.Subscribe(auditHandler)
	log.Info("Event handlers registered", zap.Strings("audit_events", auditHandler.EventTypes()))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	idemConfig := shared.IdempotencyConfig{
		Enabled: cfg.Idempotency.Enabled,
		TTL:     cfg.Idempotency.TTL,
	}
	allocationService := billingapp.NewAllocationServiceWithIdempotency(txScope, idemStore, idemConfig).
		WithEventPublisher(eventBus)
	enrollmentService := billingapp.NewEnrollmentService(studentRepo, programRepo, allocationService).
		WithEventPublisher(eventBus)
	queryService := billingapp.NewQueryService(studentRepo, programRepo, commitmentRepo, paymentRepo)
	carteraService := billingapp.NewCarteraService(studentRepo, commitmentRepo)

	// Nightly cartera snapshot (if enabled)
	if cfg.Cartera.SnapshotEnabled {
		snapshotConfig := scheduler.CarteraSnapshotConfig{
			SnapshotHour:   cfg.Cartera.SnapshotHour,
			SnapshotMinute: cfg.Cartera.SnapshotMinute,
			CheckInterval:  cfg.Cartera.CheckInterval,
		}
		carteraScheduler := scheduler.NewCarteraSnapshotScheduler(snapshotConfig, studentRepo, carteraService, log)
		if err := carteraScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start cartera snapshot scheduler", zap.Error(err))
		}
		defer func() {
			if err := carteraScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping cartera snapshot scheduler", zap.Error(err))
			}
		}()
		log.Info("Cartera snapshot scheduler started",
			zap.Int("hour", cfg.Cartera.SnapshotHour),
			zap.Int("minute", cfg.Cartera.SnapshotMinute),
		)
	}

	// Initialize HTTP handlers
	studentHandler := handler.NewStudentAccountHandler(enrollmentService, queryService)
	paymentHandler := handler.NewPaymentHandler(allocationService, queryService)
	programHandler := handler.NewProgramHandler(queryService)
	carteraHandler := handler.NewCarteraHandler(carteraService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. Tenant - Extract and validate tenant context
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Tenant context: validates X-Tenant-ID when present; handlers fall back
	// to the development tenant when it is absent
	engine.Use(middleware.OptionalTenantMiddleware())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Billing domain (students, payments, programs, cartera)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/students", studentHandler.Enroll)
	billingRoutes.GET("/students/:id", studentHandler.GetByID)
	billingRoutes.GET("/students/:id/payments", studentHandler.ListPayments)
	billingRoutes.POST("/payments", paymentHandler.Register)
	billingRoutes.GET("/receipts/:receiptNumber", paymentHandler.GetByReceiptNumber)
	billingRoutes.GET("/programs", programHandler.List)
	billingRoutes.GET("/cartera/stats", carteraHandler.GetStats)
	billingRoutes.GET("/cartera/debts", carteraHandler.ListDebts)
	r.Register(billingRoutes)

	// System routes
	systemHandler := handler.NewSystemHandler(cfg.App.Name)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			body["pool"] = stats
		}
		c.JSON(http.StatusOK, body)
	}
}
