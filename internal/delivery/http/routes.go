package http

import (
	"github.com/cropadvisor/backend/config"
	"github.com/cropadvisor/backend/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router. m may be nil, in which
// case no request metrics are recorded and /metrics is not served.
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger, m *metrics.Metrics) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	if m != nil {
		router.Use(m.Middleware())
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := router.Group("/api/v1")
	if cfg.RateLimit.PerIP > 0 {
		v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst)))
	}
	{
		v1.GET("/crops", handler.ListCrops)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handler.Register)
			auth.POST("/login", handler.Login)
		}

		protected := v1.Group("")
		protected.Use(AuthMiddleware(handler.auth))
		{
			measurements := protected.Group("/measurements")
			{
				measurements.POST("", handler.CreateMeasurement)
				measurements.GET("", handler.ListMeasurements)
				measurements.GET("/:id", handler.GetMeasurement)
				measurements.DELETE("/:id", handler.DeleteMeasurement)
			}

			predict := protected.Group("/predict")
			{
				predict.POST("/crop", handler.PredictCrop)
				predict.POST("/fertilizer", handler.PredictFertilizer)
				predict.POST("/yield", handler.PredictYield)
			}

			protected.GET("/history", handler.History)
		}
	}

	return router
}
