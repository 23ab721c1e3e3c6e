// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"partsync/internal/core/numerator"
	"partsync/internal/core/rbac"
	"partsync/internal/domain/audit"
	"partsync/internal/domain/auth"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/catalogs/product"
	"partsync/internal/domain/catalogs/supplier"
	"partsync/internal/domain/ledger"
	"partsync/internal/domain/mrp"
	"partsync/internal/domain/notify"
	"partsync/internal/domain/picking"
	"partsync/internal/domain/purchase"
	"partsync/internal/domain/salesorder"
	"partsync/internal/infrastructure/http/v1/handlers"
	"partsync/internal/infrastructure/http/v1/middleware"
	"partsync/internal/infrastructure/storage/postgres"
	"partsync/internal/infrastructure/storage/postgres/catalog_repo"
	"partsync/internal/infrastructure/storage/postgres/ledger_repo"
	"partsync/internal/infrastructure/storage/postgres/mrp_repo"
	"partsync/internal/infrastructure/storage/postgres/order_repo"
	"partsync/internal/infrastructure/storage/postgres/task_repo"
	"partsync/pkg/logger"
)

// RouterConfig holds everything the router needs to assemble the API.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *pgxpool.Pool

	// TxManager drives transactions for all repositories.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator validates access tokens.
	JWTValidator middleware.JWTValidator

	// AuthService backs the /auth endpoints.
	AuthService *auth.Service

	// Numerator generates document codes.
	Numerator numerator.Generator

	// ChangeLog records purchase-order and audit change history.
	ChangeLog *postgres.ChangeLog

	// Notifier receives MRP run alerts.
	Notifier notify.Notifier

	// Version is reported by /health/info.
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}

	// Repositories
	partRepo := catalog_repo.NewPartRepo(cfg.TxManager)
	supplierRepo := catalog_repo.NewSupplierRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(cfg.TxManager)
	salesRepo := order_repo.NewSalesOrderRepo(cfg.TxManager)
	purchaseRepo := order_repo.NewPurchaseOrderRepo(cfg.TxManager)
	resultRepo := mrp_repo.NewResultRepo(cfg.TxManager)
	auditRepo := task_repo.NewAuditRepo(cfg.TxManager)
	pickingRepo := task_repo.NewPickingRepo(cfg.TxManager)

	// Services
	stockService := ledger.NewService(ledgerRepo, cfg.Numerator, cfg.TxManager)
	partService := part.NewService(partRepo, stockService, cfg.TxManager)
	supplierService := supplier.NewService(supplierRepo)
	productService := product.NewService(productRepo, cfg.TxManager)
	salesService := salesorder.NewService(salesRepo, cfg.Numerator, cfg.TxManager)
	purchaseService := purchase.NewService(purchaseRepo, stockService, cfg.Numerator, cfg.TxManager)
	aggregator := mrp.NewAggregator(salesService, productService)
	engine := mrp.NewEngine(aggregator, purchaseService, partService, stockService, resultRepo, cfg.TxManager, notifier)
	consolidator := mrp.NewConsolidator(partService, supplierService, salesService, purchaseService, resultRepo, cfg.TxManager)
	auditService := audit.NewService(auditRepo, partService, stockService, cfg.Numerator, cfg.TxManager)
	pickingService := picking.NewService(pickingRepo, salesService, productService, partService, stockService, cfg.Numerator, cfg.TxManager)

	// Handlers
	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	partHandler := handlers.NewPartHandler(base, partService, stockService)
	supplierHandler := handlers.NewSupplierHandler(base, supplierService)
	productHandler := handlers.NewProductHandler(base, productService)
	inventoryHandler := handlers.NewInventoryHandler(base, stockService)
	salesHandler := handlers.NewSalesOrderHandler(base, salesService)
	orderHandler := handlers.NewOrderHandler(base, purchaseService, consolidator, cfg.ChangeLog)
	mrpHandler := handlers.NewMRPHandler(base, engine)
	auditHandler := handlers.NewAuditHandler(base, auditService, cfg.ChangeLog)
	pickingHandler := handlers.NewPickingHandler(base, pickingService)

	apiV1 := router.Group("/api/v1")

	// Auth: login and refresh are public, the rest requires a token.
	// Registration is admin-only.
	authPublic := apiV1.Group("/auth")
	{
		authPublic.POST("/login", authHandler.Login)
		authPublic.POST("/refresh", authHandler.Refresh)
	}
	authProtected := apiV1.Group("/auth")
	authProtected.Use(middleware.Auth(cfg.JWTValidator))
	{
		authProtected.POST("/logout", authHandler.Logout)
		authProtected.GET("/me", authHandler.Me)
		authProtected.POST("/change-password", authHandler.ChangePassword)
		authProtected.POST("/register", middleware.RequireAdmin(), authHandler.Register)
	}

	protected := apiV1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	// Catalogs
	parts := protected.Group("/parts")
	{
		parts.GET("", middleware.Require(rbac.ResourcePart, rbac.ActionRead), partHandler.List)
		parts.POST("", middleware.Require(rbac.ResourcePart, rbac.ActionWrite), partHandler.Create)
		parts.GET("/:id", middleware.Require(rbac.ResourcePart, rbac.ActionRead), partHandler.Get)
		parts.PUT("/:id", middleware.Require(rbac.ResourcePart, rbac.ActionWrite), partHandler.Update)
		parts.DELETE("/:id", middleware.Require(rbac.ResourcePart, rbac.ActionDelete), partHandler.Deactivate)
		parts.GET("/:id/stock", middleware.Require(rbac.ResourceInventory, rbac.ActionRead), partHandler.Stock)
		parts.GET("/:id/transactions", middleware.Require(rbac.ResourceInventory, rbac.ActionRead), partHandler.Transactions)
	}

	suppliers := protected.Group("/suppliers")
	{
		suppliers.GET("", middleware.Require(rbac.ResourceSupplier, rbac.ActionRead), supplierHandler.List)
		suppliers.POST("", middleware.Require(rbac.ResourceSupplier, rbac.ActionWrite), supplierHandler.Create)
		suppliers.GET("/:id", middleware.Require(rbac.ResourceSupplier, rbac.ActionRead), supplierHandler.Get)
		suppliers.PUT("/:id", middleware.Require(rbac.ResourceSupplier, rbac.ActionWrite), supplierHandler.Update)
	}

	products := protected.Group("/products")
	{
		products.GET("", middleware.Require(rbac.ResourceProduct, rbac.ActionRead), productHandler.List)
		products.POST("", middleware.Require(rbac.ResourceProduct, rbac.ActionWrite), productHandler.Create)
		products.GET("/:id", middleware.Require(rbac.ResourceProduct, rbac.ActionRead), productHandler.Get)
		products.PUT("/:id", middleware.Require(rbac.ResourceProduct, rbac.ActionWrite), productHandler.Update)
	}

	// Inventory ledger
	inventory := protected.Group("/inventory")
	{
		inventory.GET("", middleware.Require(rbac.ResourceInventory, rbac.ActionRead), inventoryHandler.List)
		inventory.POST("/movements", middleware.Require(rbac.ResourceInventory, rbac.ActionWrite), inventoryHandler.Movement)
		inventory.POST("/reservations", middleware.Require(rbac.ResourceInventory, rbac.ActionWrite), inventoryHandler.Reserve)
		inventory.POST("/reservations/release", middleware.Require(rbac.ResourceInventory, rbac.ActionWrite), inventoryHandler.Release)
	}

	// Sales orders
	salesOrders := protected.Group("/sales-orders")
	{
		salesOrders.GET("", middleware.Require(rbac.ResourceSalesOrder, rbac.ActionRead), salesHandler.List)
		salesOrders.POST("", middleware.Require(rbac.ResourceSalesOrder, rbac.ActionWrite), salesHandler.Create)
		salesOrders.GET("/:id", middleware.Require(rbac.ResourceSalesOrder, rbac.ActionRead), salesHandler.Get)
		salesOrders.PUT("/:id/status", middleware.Require(rbac.ResourceSalesOrder, rbac.ActionWrite), salesHandler.SetStatus)
	}

	// MRP
	mrpGroup := protected.Group("/mrp")
	{
		mrpGroup.GET("", middleware.Require(rbac.ResourceMrp, rbac.ActionRead), mrpHandler.List)
		mrpGroup.POST("/run", middleware.Require(rbac.ResourceMrp, rbac.ActionExecute), mrpHandler.Run)
		mrpGroup.POST("/run/sales-order/:id", middleware.Require(rbac.ResourceMrp, rbac.ActionExecute), mrpHandler.RunForSalesOrder)
	}

	// Purchase orders
	orders := protected.Group("/orders")
	{
		orders.GET("", middleware.Require(rbac.ResourceOrder, rbac.ActionRead), orderHandler.List)
		orders.POST("", middleware.Require(rbac.ResourceOrder, rbac.ActionWrite), orderHandler.Create)
		orders.POST("/from-mrp", middleware.Require(rbac.ResourceOrder, rbac.ActionExecute), orderHandler.FromMRP)
		orders.GET("/:id", middleware.Require(rbac.ResourceOrder, rbac.ActionRead), orderHandler.Get)
		orders.POST("/:id/issue", middleware.Require(rbac.ResourceOrder, rbac.ActionExecute), orderHandler.Issue)
		orders.POST("/:id/cancel", middleware.Require(rbac.ResourceOrder, rbac.ActionExecute), orderHandler.Cancel)
		orders.POST("/:id/receive", middleware.Require(rbac.ResourceOrder, rbac.ActionWrite), orderHandler.Receive)
	}

	// Audits
	audits := protected.Group("/audit")
	{
		audits.GET("", middleware.Require(rbac.ResourceAudit, rbac.ActionRead), auditHandler.List)
		audits.POST("", middleware.Require(rbac.ResourceAudit, rbac.ActionWrite), auditHandler.Create)
		audits.GET("/:id", middleware.Require(rbac.ResourceAudit, rbac.ActionRead), auditHandler.Get)
		audits.PUT("/:id", middleware.Require(rbac.ResourceAudit, rbac.ActionExecute), auditHandler.Update)
		audits.GET("/:id/discrepancies", middleware.Require(rbac.ResourceAudit, rbac.ActionRead), auditHandler.Discrepancies)
		audits.POST("/:id/revert", middleware.Require(rbac.ResourceAudit, rbac.ActionExecute), auditHandler.Revert)
	}

	// Picking
	pickingGroup := protected.Group("/picking")
	{
		pickingGroup.GET("", middleware.Require(rbac.ResourcePicking, rbac.ActionRead), pickingHandler.List)
		pickingGroup.GET("/:id", middleware.Require(rbac.ResourcePicking, rbac.ActionRead), pickingHandler.Get)
		pickingGroup.POST("/from-sales-order/:id", middleware.Require(rbac.ResourcePicking, rbac.ActionWrite), pickingHandler.CreateFromSalesOrder)
		pickingGroup.POST("/:id/items/:itemId/pick", middleware.Require(rbac.ResourcePicking, rbac.ActionWrite), pickingHandler.PickItem)
		pickingGroup.POST("/:id/items/:itemId/skip", middleware.Require(rbac.ResourcePicking, rbac.ActionWrite), pickingHandler.SkipItem)
		pickingGroup.POST("/:id/revert", middleware.Require(rbac.ResourcePicking, rbac.ActionExecute), pickingHandler.Revert)
	}

	return router
}
