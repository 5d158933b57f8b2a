package routes

import (
	"net/http"

	"precast-tracker/internal/config"
	"precast-tracker/internal/delivery/http/handler"
	domainUser "precast-tracker/internal/domain/user"
	"precast-tracker/internal/infrastructure/database/postgres"
	"precast-tracker/internal/logger"
	"precast-tracker/internal/middleware"
	"precast-tracker/internal/notification"
	"precast-tracker/internal/usecase/authz"
	"precast-tracker/internal/usecase/batch"
	"precast-tracker/internal/usecase/delivery"
	"precast-tracker/internal/usecase/element"
	notificationUsecase "precast-tracker/internal/usecase/notification"
	"precast-tracker/internal/usecase/scan"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB, dispatcher *notification.Dispatcher) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order: recovery, request ID, logging, security headers, CORS, body size, per-IP rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))
	router.Use(middleware.RateLimitMiddleware(
		middleware.NewRateLimiter("general", cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	userRepository := postgres.NewUserRepository(db)
	projectRepository := postgres.NewProjectRepository(db)
	elementRepository := postgres.NewElementRepository(db)
	batchRepository := postgres.NewBatchRepository(db)
	deliveryRepository := postgres.NewDeliveryRepository(db)
	notificationRepository := postgres.NewNotificationRepository(db)

	gate := authz.NewGate(userRepository, deliveryRepository)

	elementService := element.NewService(elementRepository, projectRepository, deliveryRepository, gate, dispatcher)
	scanService := scan.NewService(elementRepository, projectRepository, gate, cfg.Scan.BaseURL)
	batchService := batch.NewService(batchRepository, elementRepository, projectRepository, elementService, gate)
	deliveryService := delivery.NewService(deliveryRepository, elementRepository, projectRepository, elementService, scanService, gate)
	inboxService := notificationUsecase.NewService(notificationRepository, gate)

	elementHandler := handler.NewElementHandler(elementService, scanService)
	batchHandler := handler.NewBatchHandler(batchService)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService)
	scanHandler := handler.NewScanHandler(scanService)
	notificationHandler := handler.NewNotificationHandler(inboxService)

	scanLimit := middleware.RateLimitMiddleware(
		middleware.NewRateLimiter("scan", cfg.RateLimit.ScanRPS, cfg.RateLimit.ScanBurst))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg))
	v1.Use(middleware.RateLimitMiddleware(
		middleware.NewRateLimiter("actor", cfg.RateLimit.ActorRPS, cfg.RateLimit.ActorBurst)))
	{
		// Any active account
		member := v1.Group("")
		member.Use(middleware.RoleMiddleware(gate))
		{
			elementHandler.RegisterRoutes(member)
			batchHandler.RegisterRoutes(member)
			notificationHandler.RegisterRoutes(member)
		}

		factory := v1.Group("")
		factory.Use(middleware.FactoryOnly(gate))
		{
			elementHandler.RegisterFactoryRoutes(factory)
			batchHandler.RegisterFactoryRoutes(factory)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminOnly(gate))
		{
			admin.GET("/notifications/metrics", func(c *gin.Context) {
				utils.SuccessResponse(c, http.StatusOK, "Notification metrics", dispatcher.Metrics())
			})
		}

		// Drivers and admins; per-delivery ownership is checked by the service
		transport := v1.Group("")
		transport.Use(middleware.RoleMiddleware(gate, domainUser.RoleDriver, domainUser.RoleAdmin))
		{
			deliveryHandler.RegisterRoutes(transport, scanLimit)
			scanHandler.RegisterRoutes(transport, scanLimit)
		}
	}

	logger.Info("All routes initialized")
	return router
}
