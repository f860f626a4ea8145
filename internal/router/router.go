// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/handlers"
	"github.com/javajoker/stockcount/internal/middleware"
	"github.com/javajoker/stockcount/internal/models"
	"github.com/javajoker/stockcount/internal/services"
	"github.com/javajoker/stockcount/internal/utils"
)

const version = "1.0.0"

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	flagService := services.NewFeatureFlagService(db)

	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	syncService := services.NewUserSyncService(db, services.NewHTTPUserDirectory(cfg.UserSync), cfg.UserSync)
	warehouseService := services.NewWarehouseService(db)
	measureService := services.NewMeasureService(db)
	productService := services.NewProductService(db)
	inventoryService := services.NewInventoryService(db, cfg, flagService, storageService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, syncService)
	warehouseHandler := handlers.NewWarehouseHandler(warehouseService)
	measureHandler := handlers.NewMeasureHandler(measureService)
	productHandler := handlers.NewProductHandler(productService)
	flagHandler := handlers.NewFeatureFlagHandler(flagService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limits := middleware.NewLimits(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limits.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": version,
		})
	})

	allRoles := middleware.RequireRoles(models.RoleAdmin, models.RoleWarehouseManager, models.RoleProcessLeader)
	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleWarehouseManager)
	admin := middleware.AdminRequired()

	// Authentication routes
	auth := r.Group("/auth")
	{
		auth.POST("/login", limits.Login.Middleware(), authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
	}

	// User routes
	users := r.Group("/users")
	users.Use(middleware.AuthRequired(), admin)
	{
		users.GET("/", userHandler.ListUsers)
		users.POST("/", userHandler.CreateUser)
		users.POST("/sync", userHandler.SyncUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
	}

	// Measurement unit routes
	units := r.Group("/measurement-units")
	units.Use(middleware.AuthRequired())
	{
		units.GET("/", allRoles, measureHandler.ListUnits)
		units.POST("/", admin, measureHandler.CreateUnit)
		units.PUT("/:id", admin, measureHandler.UpdateUnit)
		units.PATCH("/:id/toggle", admin, measureHandler.ToggleUnit)
	}

	// Feature flag routes
	flags := r.Group("/feature-flags")
	flags.Use(middleware.AuthRequired(), admin)
	{
		flags.GET("/", flagHandler.ListFlags)
		flags.POST("/", flagHandler.CreateFlag)
		flags.PUT("/:id", flagHandler.UpdateFlag)
		flags.PATCH("/:id/toggle", flagHandler.ToggleFlag)
	}

	// Warehouse routes
	warehouses := r.Group("/warehouses")
	warehouses.Use(middleware.AuthRequired())
	{
		warehouses.GET("/", managers, warehouseHandler.ListWarehouses)
		warehouses.POST("/", admin, warehouseHandler.CreateWarehouse)
	}

	// Product routes
	products := r.Group("/products")
	products.Use(middleware.AuthRequired())
	{
		products.GET("/", allRoles, productHandler.ListProducts)
		products.POST("/", admin, productHandler.CreateProduct)
	}

	// Inventory session routes
	sessions := r.Group("/inventory-sessions")
	sessions.Use(middleware.AuthRequired())
	{
		sessions.POST("/", managers, inventoryHandler.CreateSession)
		sessions.GET("/", allRoles, inventoryHandler.ListSessions)
		sessions.GET("/:id", allRoles, inventoryHandler.GetSession)
		sessions.PUT("/:id/close", admin, inventoryHandler.CloseSession)
		sessions.GET("/:id/report", admin, inventoryHandler.DownloadReport)
		sessions.POST("/:id/counts", managers, inventoryHandler.RegisterCount)
		sessions.GET("/:id/counts", allRoles, inventoryHandler.ListCounts)
		sessions.POST("/:id/products", managers, inventoryHandler.AddSessionProducts)
		sessions.GET("/:id/products", managers, inventoryHandler.ListSessionProducts)
	}

	return r, nil
}
