package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/config"
	domainRepo "github.com/tablewise/billing-api/internal/domain/repository"
	"github.com/tablewise/billing-api/internal/presentation/http/handler"
	"github.com/tablewise/billing-api/internal/presentation/http/middleware"
	"github.com/tablewise/billing-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Session    *handler.SessionHandler
	Bill       *handler.BillHandler
	Compliance *handler.ComplianceHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	Log             *logrus.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// All billing routes require authentication and a restaurant scope
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.RequireRestaurant())
		protected.Use(middleware.RestaurantMiddleware())

		// Per-restaurant rate limiter
		rateLimiter := middleware.NewRestaurantRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerSessionRoutes(protected, h)
		registerBillRoutes(protected, h, deps)
		registerComplianceRoutes(protected, h)
	}

	return router
}

func registerSessionRoutes(protected *gin.RouterGroup, h *Handlers) {
	sessions := protected.Group("/sessions")
	{
		sessions.POST("", h.Session.Start)
		sessions.GET("/active", h.Session.ListActive)
		sessions.GET("/:id", h.Session.Get)
		sessions.POST("/:id/orders", h.Session.AttachOrders)
	}
}

func registerBillRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	bills := protected.Group("/bills")
	{
		bills.GET("", h.Bill.List)
		bills.GET("/stats", h.Bill.Stats)
		bills.GET("/table/:table", h.Bill.ByTable)

		// Bill creation uses idempotency middleware to prevent duplicates
		idem := middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		})
		bills.POST("", idem, h.Bill.Create)
		bills.POST("/manual", idem, h.Bill.CreateManual)
		bills.POST("/merge", idem, h.Bill.Merge)
		bills.POST("/merge-tables", idem, h.Bill.MergeTables)

		bills.GET("/:id", h.Bill.Get)
		bills.PUT("/:id/items", h.Bill.UpdateItems)
		bills.PUT("/:id/charges", h.Bill.UpdateCharges)
		bills.PUT("/:id/customer", h.Bill.UpdateCustomer)
		bills.POST("/:id/finalize", h.Bill.Finalize)
		bills.POST("/:id/payment", h.Bill.RecordPayment)
		bills.POST("/:id/cancel", h.Bill.Cancel)
	}
}

func registerComplianceRoutes(protected *gin.RouterGroup, h *Handlers) {
	compliance := protected.Group("/compliance")
	compliance.Use(middleware.RequireRole("owner", "manager", "accountant"))
	{
		compliance.GET("/logs", h.Compliance.Logs)
		compliance.GET("/summary", h.Compliance.Summary)
		compliance.GET("/monthly", h.Compliance.MonthlyReport)
		compliance.GET("/rates", h.Compliance.RateBreakdown)
		compliance.GET("/export", h.Compliance.Export)
	}

	configGroup := protected.Group("/config")
	configGroup.Use(middleware.RequireRole("owner", "manager"))
	{
		configGroup.GET("/billing", h.Compliance.GetConfig)
		configGroup.PUT("/billing", h.Compliance.UpsertConfig)
	}
}
