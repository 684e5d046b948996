package api

import (
	"github.com/Conceptual-Machines/talea-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/talea-api/internal/api/middleware"
	"github.com/Conceptual-Machines/talea-api/internal/config"
	"github.com/Conceptual-Machines/talea-api/internal/metrics"
	"github.com/Conceptual-Machines/talea-api/internal/middleware"
	"github.com/Conceptual-Machines/talea-api/internal/services"
	"github.com/gin-gonic/gin"
)

func SetupRouter(svc *services.RhythmService, cfg *config.Config, cloudwatch *metrics.Client, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(cloudwatch))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(svc, handlers.StateStoreKind(cfg))
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, cfg)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(cfg))
	{
		rhythmHandler := handlers.NewRhythmHandler(svc, cfg)
		v1.POST("/rhythm", rhythmHandler.Generate)
		v1.POST("/rhythm/dsl", rhythmHandler.GenerateDSL)
		v1.POST("/rhythm/midi", rhythmHandler.GenerateMIDI)

		streamHandler := handlers.NewStreamHandler(svc)
		v1.GET("/streams", streamHandler.List)
		v1.GET("/streams/:name/state", streamHandler.GetState)
		v1.PUT("/streams/:name/state", middleware.AdminRequired(), streamHandler.PutState)
		v1.DELETE("/streams/:name/state", middleware.AdminRequired(), streamHandler.DeleteState)
	}

	return router
}

func authMiddleware(cfg *config.Config) gin.HandlerFunc {
	switch {
	case cfg.IsGatewayMode():
		return apimiddleware.GatewayAuth()
	case cfg.IsJWTMode():
		return middleware.JWTAuth(cfg)
	default:
		return apimiddleware.NoAuth()
	}
}
