package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"saferide/internal/auth"
	"saferide/internal/domain"
	"saferide/internal/handler"
	"saferide/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	TripHandler    *handler.TripHandler
	PaymentHandler *handler.PaymentHandler
	DriverHandler  *handler.DriverHandler
	AdminHandler   *handler.AdminHandler
	Tokens         *auth.TokenManager
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Unauthenticated surface.
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", deps.AuthHandler.Register)
		authRoutes.POST("/login", deps.AuthHandler.Login)
	}

	// The gateway posts callbacks without credentials.
	v1.POST("/payments/callback", deps.PaymentHandler.Callback)

	// Authenticated surface.
	authed := v1.Group("")
	authed.Use(middleware.Auth(deps.Tokens))
	{
		trips := authed.Group("/trips")
		{
			trips.POST("", deps.TripHandler.Create)
			trips.GET("", deps.TripHandler.List)
			trips.GET("/available", deps.TripHandler.Available)
			trips.GET("/:id", deps.TripHandler.Get)
			trips.PUT("/:id/accept", deps.TripHandler.Accept)
			trips.PUT("/:id/start", deps.TripHandler.Start)
			trips.PUT("/:id/complete", deps.TripHandler.Complete)
			trips.PUT("/:id/cancel", deps.TripHandler.Cancel)
			trips.POST("/:id/rate", deps.TripHandler.Rate)
		}

		payments := authed.Group("/payments")
		{
			payments.POST("/initiate", deps.PaymentHandler.Initiate)
			payments.GET("", deps.PaymentHandler.List)
			payments.GET("/:id", deps.PaymentHandler.Get)
		}

		drivers := authed.Group("/drivers")
		{
			drivers.GET("/profile", deps.DriverHandler.GetProfile)
			drivers.PUT("/profile", deps.DriverHandler.UpsertProfile)
			drivers.PUT("/status", deps.DriverHandler.SetStatus)
			drivers.GET("/earnings", deps.DriverHandler.Earnings)
		}

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole(domain.RoleAdmin))
		{
			admin.GET("/stats", deps.AdminHandler.Stats)
			admin.GET("/users", deps.AdminHandler.ListUsers)
			admin.PUT("/config", deps.AdminHandler.UpdateConfig)
		}
	}

	return router
}
