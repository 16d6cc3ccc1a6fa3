package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/application/service"
	"github.com/tablewise/billing-api/internal/config"
	"github.com/tablewise/billing-api/internal/infrastructure/cache"
	"github.com/tablewise/billing-api/internal/infrastructure/database"
	"github.com/tablewise/billing-api/internal/infrastructure/notify"
	"github.com/tablewise/billing-api/internal/infrastructure/repository"
	"github.com/tablewise/billing-api/internal/presentation/http/handler"
	"github.com/tablewise/billing-api/internal/presentation/http/routes"
	"github.com/tablewise/billing-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.App.Env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is optional; fall back to no-op fan-out and cache invalidation
	publisher := notify.NewNoopPublisher()
	invalidator := cache.NewNoopInvalidator()
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warnf("Redis unavailable, realtime updates disabled: %v", err)
	} else if redisClient != nil {
		publisher = notify.NewRedisPublisher(redisClient, logger)
		invalidator = cache.NewRedisInvalidator(redisClient, logger)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db)
	billRepo := repository.NewBillRepository(db)
	auditRepo := repository.NewBillAuditRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	complianceRepo := repository.NewComplianceRepository(db)
	configRepo := repository.NewBillingConfigRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	sessionService := service.NewSessionService(sessionRepo, billRepo, cfg.Session.TTL, logger)
	complianceService := service.NewComplianceService(complianceRepo, configRepo, logger)
	billingService := service.NewBillingService(billRepo, auditRepo, orderRepo, sessionService, complianceService, publisher, invalidator, logger)
	mergeService := service.NewMergeService(billRepo, auditRepo, orderRepo, publisher, logger)

	// Expire stale sessions in the background
	sessionService.StartSweeper(context.Background(), cfg.Session.SweepInterval)

	// Initialize handlers
	handlers := &routes.Handlers{
		Session:    handler.NewSessionHandler(sessionService),
		Bill:       handler.NewBillHandler(billingService, mergeService),
		Compliance: handler.NewComplianceHandler(complianceService, configRepo),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		Log:             logger,
		IdempotencyRepo: idempotencyRepo,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	logger.Infof("Starting %s server on port %s...", cfg.App.Name, port)
	logger.Infof("Environment: %s", cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
