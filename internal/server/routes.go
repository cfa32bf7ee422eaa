package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tutor-service/internal/server/handlers"
	"tutor-service/internal/server/middleware"
)

// SetupRoutes wires every HTTP and WebSocket route onto the engine.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	limiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	convHandler *handlers.ConversationHandler,
	chatHandler *handlers.ChatHandler,
	wsHandler *handlers.WSHandler,
) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}
	}

	// Protected routes (require JWT authentication)
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(jwtSecret))
	{
		users := protected.Group("/users")
		{
			users.GET("/me", userHandler.GetMe)
			users.PUT("/me/preferences", userHandler.UpdatePreferences)
		}

		convs := protected.Group("/conversations")
		{
			convs.POST("", convHandler.Create)
			convs.GET("", convHandler.List)
			convs.GET("/:id", convHandler.Get)
			convs.DELETE("/:id", convHandler.Deactivate)
		}

		// The tutor path is the expensive one; throttle it per user.
		chat := protected.Group("/chat")
		chat.Use(limiter.Limit(30, time.Minute))
		{
			chat.POST("/text", chatHandler.SendText)
			chat.POST("/audio", chatHandler.SendAudio)
		}
	}

	// WebSocket endpoints. Status is public; the sockets authenticate via
	// query token since browsers cannot set handshake headers.
	router.GET("/ws/status", wsHandler.Status)
	wsAuth := middleware.WSAuth(jwtSecret)
	router.GET("/ws", wsAuth, wsHandler.Connect)
	router.GET("/ws/admin", wsAuth, wsHandler.ConnectAdmin)
}
