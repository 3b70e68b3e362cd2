package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	registryapp "github.com/pharmassoc/backend/internal/application/registry"
	"github.com/pharmassoc/backend/internal/infrastructure/auth"
	"github.com/pharmassoc/backend/internal/infrastructure/cache"
	"github.com/pharmassoc/backend/internal/infrastructure/config"
	"github.com/pharmassoc/backend/internal/infrastructure/logger"
	"github.com/pharmassoc/backend/internal/infrastructure/persistence"
	"github.com/pharmassoc/backend/internal/infrastructure/storage"
	"github.com/pharmassoc/backend/internal/interfaces/http/handler"
	"github.com/pharmassoc/backend/internal/interfaces/http/middleware"
	"github.com/pharmassoc/backend/internal/interfaces/http/router"
)

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

	log.Info("Starting Association Dues Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
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
	dueRepo := persistence.NewGormDueRepository(db.DB)
	dueTypeRepo := persistence.NewGormDueTypeRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	pharmacyRepo := persistence.NewGormPharmacyRepository(db.DB)
	sequences := persistence.NewGormSequenceAllocator(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Receipt storage: S3 primary with local filesystem fallback. When the
	// bucket is not configured (local development) the local store serves as
	// the only backend.
	localStore, err := storage.NewLocalReceiptStorage(
		cfg.Storage.LocalPath,
		cfg.Storage.LocalPublicBase,
		storage.WithLocalLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to initialize local receipt storage", zap.Error(err))
	}

	var receiptStore duesapp.ReceiptStorage = localStore
	submissionOpts := []duesapp.SubmissionServiceOption{
		duesapp.WithMaxReceiptSize(cfg.Storage.MaxUploadSize),
		duesapp.WithSubmissionLogger(log),
	}
	if cfg.Storage.S3Bucket != "" {
		s3Store, err := storage.NewS3ReceiptStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize S3 receipt storage", zap.Error(err))
		}
		receiptStore = s3Store
		submissionOpts = append(submissionOpts, duesapp.WithFallbackStorage(localStore))
		log.Info("Receipt storage ready",
			zap.String("primary", "s3"),
			zap.String("bucket", cfg.Storage.S3Bucket),
		)
	} else {
		log.Warn("S3 bucket not configured, storing receipts on local filesystem only")
	}

	// Idempotency store for payment submission retries
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	submissionOpts = append(submissionOpts, duesapp.WithIdempotencyStore(idempotencyStore, cfg.Dues.IdempotencyTTL))

	// JWT service and token blacklist
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		tokenBlacklist, err = auth.NewRedisTokenBlacklist(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect token blacklist to Redis", zap.Error(err))
		}
	} else {
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Initialize application services
	assignmentService := duesapp.NewAssignmentService(
		dueRepo, dueTypeRepo, pharmacyRepo,
		duesapp.WithAssignmentLogger(log),
	)
	dueTypeService := duesapp.NewDueTypeService(dueTypeRepo)
	submissionService := duesapp.NewSubmissionService(dueRepo, paymentRepo, receiptStore, submissionOpts...)
	reviewService := duesapp.NewReviewService(
		uow, paymentRepo, dueRepo,
		duesapp.WithReceiptCleanup(receiptStore),
		duesapp.WithReviewLogger(log),
	)
	queryService := duesapp.NewQueryService(dueRepo, paymentRepo)
	registrationService := registryapp.NewRegistrationService(
		pharmacyRepo, sequences,
		registryapp.WithNumberPrefix(cfg.Dues.RegistrationPrefix),
		registryapp.WithRegistrationLogger(log),
	)

	// Initialize HTTP handlers
	duesHandler := handler.NewDuesHandler(assignmentService, reviewService, queryService)
	paymentsHandler := handler.NewPaymentsHandler(submissionService, reviewService, queryService)
	dueTypesHandler := handler.NewDueTypesHandler(dueTypeService)
	pharmaciesHandler := handler.NewPharmaciesHandler(registrationService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
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
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Locally stored receipts are served straight from disk
	engine.Static(cfg.Storage.LocalPublicBase, cfg.Storage.LocalPath)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			cfg.Storage.LocalPublicBase,
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Register domain handlers
	r.Register(duesHandler).
		Register(paymentsHandler).
		Register(dueTypesHandler).
		Register(pharmaciesHandler).
		Register(systemHandler)

	// Setup routes
	r.Setup()

	// Periodically flag dues whose deadline has passed
	overdueCtx, stopOverdue := context.WithCancel(context.Background())
	defer stopOverdue()
	go runOverdueChecker(overdueCtx, assignmentService, cfg.Dues.OverdueCheckInterval, log)

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

	stopOverdue()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runOverdueChecker marks pending and partially paid dues as overdue once
// their due date passes. It runs until ctx is cancelled.
func runOverdueChecker(ctx context.Context, svc *duesapp.AssignmentService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := svc.MarkOverdueDues(ctx)
			if err != nil {
				log.Error("Overdue check failed", zap.Error(err))
				continue
			}
			if count > 0 {
				log.Info("Marked dues as overdue", zap.Int64("count", count))
			}
		}
	}
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
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
