package router

import (
	"time"

	"tillpos/internal/cart"
	"tillpos/internal/config"
	"tillpos/internal/handler"
	"tillpos/internal/middleware"
	"tillpos/internal/repository"
	"tillpos/internal/service"
	"tillpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// worker handlers for the async pool.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *worker.Dispatcher, *worker.Handlers) {
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
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	stockMovRepo := repository.NewStockMovementRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	suspendedRepo := repository.NewSuspendedOrderRepository(rdb,
		time.Duration(cfg.SuspendedOrderTTLHours)*time.Hour)

	// One in-memory cart per terminal, shared by cart/checkout/suspend
	carts := cart.NewStore()

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)
	workerHandlers := &worker.Handlers{
		Ledger: worker.NewLedgerWorker(orderRepo, ledgerRepo),
	}

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	sessionSvc := service.NewSessionService(sessionRepo)
	cartSvc := service.NewCartService(carts, productRepo, clientRepo, sessionSvc)
	checkoutSvc := service.NewCheckoutService(carts, sessionSvc, orderRepo, productRepo, sessionRepo, stockMovRepo, dispatcher)
	suspendSvc := service.NewSuspendService(carts, suspendedRepo, sessionSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	cartH := handler.NewCartHandler(cartSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	ordersH := handler.NewOrdersHandler(checkoutSvc)
	suspendedH := handler.NewSuspendedHandler(suspendSvc)
	priceH := handler.NewPriceCheckHandler(productRepo, rdb,
		time.Duration(cfg.PriceCacheSeconds)*time.Second)
	productsH := handler.NewProductsHandler(productRepo)
	clientsH := handler.NewClientsHandler(clientRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, dispatcher))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required, kiosk scanners hit this directly
	r.GET("/v1/price/:barcode", priceH.GetByBarcode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole("cashier", "supervisor", "admin")
	elevated := middleware.RequireRole("supervisor", "admin")
	adminOnly := middleware.RequireRole("admin")

	v1 := r.Group("/v1", jwtMW)
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/open", anyRole, sessionH.Open)
			sessions.POST("/close", anyRole, sessionH.Close)
			sessions.POST("/withdrawal", elevated, sessionH.Withdrawal)
			sessions.POST("/reinforcement", anyRole, sessionH.Reinforcement)
			sessions.GET("/active", anyRole, sessionH.Active)
			sessions.GET("/history", elevated, sessionH.History)
			sessions.GET("/:id/report", anyRole, sessionH.Report)
			sessions.GET("/:id/movements", anyRole, sessionH.Movements)
		}

		crt := v1.Group("/cart", anyRole)
		{
			crt.GET("", cartH.Get)
			crt.DELETE("", cartH.Clear)
			crt.POST("/items", cartH.AddItem)
			crt.PATCH("/items/:product_id", cartH.SetQuantity)
			crt.DELETE("/items/:product_id", cartH.RemoveItem)
			crt.POST("/discount", cartH.Discount)
			crt.POST("/delivery-fee", cartH.DeliveryFee)
			crt.POST("/client", cartH.SetClient)
		}

		checkout := v1.Group("/checkout", anyRole)
		{
			checkout.POST("", checkoutH.Finalize)
			checkout.POST("/tenders", checkoutH.AddTender)
			checkout.DELETE("/tenders", checkoutH.ClearTenders)
		}

		suspended := v1.Group("/suspended", anyRole)
		{
			suspended.POST("", suspendedH.Suspend)
			suspended.GET("", suspendedH.List)
			suspended.POST("/:id/resume", suspendedH.Resume)
			suspended.DELETE("/:id", suspendedH.Cancel)
		}

		v1.GET("/orders", anyRole, ordersH.List)
		v1.GET("/orders/:id", anyRole, ordersH.Get)
		v1.POST("/orders/:id/void", elevated, ordersH.Void)

		v1.GET("/products", anyRole, productsH.List)
		v1.GET("/products/:id", anyRole, productsH.Get)
		v1.POST("/products", adminOnly, productsH.Create)

		v1.GET("/clients", anyRole, clientsH.List)
		v1.POST("/clients", anyRole, clientsH.Create)

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, dispatcher, workerHandlers
}
