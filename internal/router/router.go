package router

import (
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/config"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/handler"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/middleware"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	stockRepo := repository.NewStockRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	audit := service.NewAuditLogger(dispatcher, auditRepo)
	stockSvc := service.NewStockService(stockRepo, cfg.StockFloorPolicy)
	transferSvc := service.NewTransferService(transferRepo, stockSvc, catalogRepo, audit)
	subscriptionSvc := service.NewSubscriptionService(planRepo, subscriptionRepo, customerRepo, stockSvc, audit)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, stockSvc, customerRepo, catalogRepo, audit, dispatcher, cfg.AlertEmailTo)
	syncSvc := service.NewSyncService(invoiceRepo, customerRepo, catalogRepo, stockSvc, rdb,
		time.Duration(cfg.SyncCacheTTLSeconds)*time.Second, audit)

	// ── Handlers ─────────────────────────────────────────────────────────────
	stockH := handler.NewStockHandler(stockSvc)
	transfersH := handler.NewTransfersHandler(transferSvc)
	subscriptionsH := handler.NewSubscriptionsHandler(subscriptionSvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)
	syncH := handler.NewSyncHandler(syncSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes. Branch-level authorization happens in the services:
	// the JWT pins non-admin users to a branch, role gates are declared here.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	staff := middleware.RequireRole("staff", "manager", "admin")
	managers := middleware.RequireRole("manager", "admin")
	admins := middleware.RequireRole("admin")

	v1 := r.Group("/v1", jwtMW)
	{
		// Stock ledger
		v1.GET("/stock", staff, stockH.List)
		v1.GET("/stock/:id", staff, stockH.Get)
		v1.GET("/stock/:id/movements", staff, stockH.Movements)
		v1.POST("/stock/adjust", managers, stockH.Adjust)

		// Transfers
		v1.POST("/transfers", staff, transfersH.Create)
		v1.GET("/transfers", staff, transfersH.List)
		v1.GET("/transfers/:id", staff, transfersH.Get)
		v1.POST("/transfers/:id/approve", managers, transfersH.Approve)
		v1.POST("/transfers/:id/reject", managers, transfersH.Reject)
		v1.POST("/transfers/:id/pickup", staff, transfersH.Pickup)
		v1.POST("/transfers/:id/receive", staff, transfersH.Receive)
		v1.DELETE("/transfers/:id", managers, transfersH.Delete)

		// Subscription plans
		v1.GET("/subscription-plans", staff, subscriptionsH.ListPlans)
		v1.GET("/subscription-plans/:id", staff, subscriptionsH.GetPlan)
		plans := v1.Group("/subscription-plans", admins)
		{
			plans.POST("", subscriptionsH.CreatePlan)
			plans.PUT("/:id", subscriptionsH.UpdatePlan)
			plans.DELETE("/:id", subscriptionsH.DeletePlan)
		}

		// Subscriptions
		v1.POST("/subscriptions", staff, subscriptionsH.Create)
		v1.GET("/subscriptions", staff, subscriptionsH.List)
		v1.GET("/subscriptions/check", staff, subscriptionsH.Check)
		v1.POST("/subscriptions/redeem", staff, subscriptionsH.Redeem)
		v1.POST("/subscriptions/expire-lapsed", managers, subscriptionsH.ExpireLapsed)
		v1.GET("/subscriptions/:id", staff, subscriptionsH.Get)
		v1.GET("/subscriptions/:id/redemptions", staff, subscriptionsH.ListRedemptions)
		v1.DELETE("/subscriptions/:id", managers, subscriptionsH.Cancel)

		// Invoices
		v1.POST("/invoices", staff, invoicesH.Create)
		v1.GET("/invoices", staff, invoicesH.List)
		v1.POST("/invoices/clear-all", admins, invoicesH.ClearAll)
		v1.GET("/invoices/:id", staff, invoicesH.Get)
		v1.PUT("/invoices/:id", managers, invoicesH.Edit)
		v1.POST("/invoices/:id/cancel", managers, invoicesH.Cancel)
		v1.GET("/invoices/:id/edit-history", staff, invoicesH.EditHistory)

		// Offline sync
		v1.POST("/sync/upload", staff, syncH.Upload)
		v1.GET("/sync/download", staff, syncH.Download)
		v1.GET("/sync/status", staff, syncH.Status)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
