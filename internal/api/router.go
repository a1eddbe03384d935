package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/auth"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/service"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// NewRouter creates and configures the Gin router. checks run on every
// /health request.
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, checks ...HealthCheck) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	tenderHandler := NewTenderHandler(services, log)
	userHandler := NewUserHandler(services, log)
	assistantHandler := NewAssistantHandler(services, log)

	router.GET("/health", healthHandler(checks, log))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/v1")
	v1.Use(auth.Middleware(auth.NewVerifier(&cfg.Auth), log))
	{
		tenders := v1.Group("/tenders")
		{
			tenders.GET("", tenderHandler.List)
			tenders.GET("/:id", tenderHandler.Get)
			tenders.GET("/:id/documents", tenderHandler.Documents)
			tenders.GET("/:id/contacts", tenderHandler.Contacts)
			tenders.POST("/:id/summary", tenderHandler.Summarise)
		}

		v1.GET("/stats", tenderHandler.Stats)
		v1.GET("/sources", tenderHandler.Sources)
		v1.GET("/categories", tenderHandler.Categories)

		me := v1.Group("/me", auth.RequireIdentity())
		{
			me.GET("/preferences", userHandler.GetPreferences)
			me.PUT("/preferences", userHandler.PutPreferences)
			me.GET("/saved", userHandler.Saved)
			me.PUT("/saved/:id", userHandler.AddSaved)
			me.DELETE("/saved/:id", userHandler.RemoveSaved)
			me.GET("/searches", userHandler.Searches)
			me.POST("/searches", userHandler.AddSearch)
			me.DELETE("/searches/:id", userHandler.RemoveSearch)
			me.GET("/searches/:id/tenders", userHandler.RunSearch)
		}

		assistant := v1.Group("/assistant")
		{
			assistant.POST("/chat", assistantHandler.Chat)
			assistant.POST("/speech", assistantHandler.Speech)
		}
	}

	return router
}

// healthHandler returns the health status
func healthHandler(checks []HealthCheck, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn().Err(err).Msg("Health check failed")
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "tender-discovery-api",
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+auth.DevHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
