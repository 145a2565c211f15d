// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kofiasare/campusmart-backend/internal/config"
	"github.com/kofiasare/campusmart-backend/internal/handlers"
	"github.com/kofiasare/campusmart-backend/internal/middleware"
	"github.com/kofiasare/campusmart-backend/internal/models"
	"github.com/kofiasare/campusmart-backend/internal/realtime"
	"github.com/kofiasare/campusmart-backend/internal/repository"
	"github.com/kofiasare/campusmart-backend/internal/services"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	store := repository.NewGormStore(db)
	registry := realtime.NewMemoryRegistry()

	notificationService := services.NewNotificationService(store, registry)
	orderService := services.NewOrderService(store, notificationService)
	reviewService := services.NewReviewService(store, notificationService)
	productService := services.NewProductService(db)
	authService := services.NewAuthService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	orderHandler := handlers.NewOrderHandler(orderService, reviewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWSHandler(registry, cfg.Realtime)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.SearchProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			// Seller routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleSeller))
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
				protected.GET("/mine", productHandler.GetMyProducts)
				protected.POST("/upload-images", middleware.UploadRateLimit(), productHandler.UploadImages)
			}
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", middleware.RoleRequired(models.RoleBuyer), orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.DELETE("", orderHandler.ClearOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PATCH("/:id/status", orderHandler.UpdateStatus)
			orders.POST("/:id/review", middleware.RoleRequired(models.RoleBuyer), orderHandler.CreateReview)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("", notificationHandler.ClearNotifications)
		}

		// Realtime push (token auth via query parameter)
		v1.GET("/ws", wsHandler.Connect)
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
