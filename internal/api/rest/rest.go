package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/kodella-ai/kodella/internal/api/middleware"
	"github.com/kodella-ai/kodella/internal/auth"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg auth.Config) {
	// Health check endpoint (no auth, no rate limit)
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		// Account endpoints (public)
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)

		// Profile endpoints
		api.GET("/profile", middleware.Auth(authCfg), handler.GetProfile)
		api.PATCH("/profile", middleware.Auth(authCfg), handler.UpdateProfile)
		api.GET("/profile/stats", middleware.Auth(authCfg), handler.GetStats)

		// Plugin endpoints
		plugins := api.Group("/plugins", middleware.Auth(authCfg))
		{
			plugins.POST("/generate", handler.GeneratePlugin)
			plugins.GET("", handler.ListPlugins)
			plugins.GET("/:id", handler.GetPlugin)
			plugins.GET("/:id/history", handler.GetPluginHistory)
			plugins.POST("/:id/improve", handler.ImprovePlugin)
			plugins.POST("/:id/fix", handler.FixPlugin)
			plugins.GET("/:id/download", handler.DownloadPlugin)
			plugins.DELETE("/:id", handler.DeletePlugin)
			plugins.PATCH("/:id", handler.UpdatePlugin)
		}

		// Payment endpoints
		payment := api.Group("/payment")
		{
			// Package catalog is public
			payment.GET("/packages", handler.GetPackages)
			// Provider webhook authenticates via its HMAC signature
			payment.POST("/webhook/tebex", handler.HandleWebhook)

			payment.POST("/create-checkout", middleware.Auth(authCfg), handler.CreateCheckout)
			payment.POST("/confirm", middleware.Auth(authCfg), handler.ConfirmPayment)
			payment.GET("/balance", middleware.Auth(authCfg), handler.GetBalance)
			payment.GET("/transactions", middleware.Auth(authCfg), handler.GetTransactions)
		}
	}
}
