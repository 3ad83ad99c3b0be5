package routes

import (
	"fastpath/internal/controllers"
	"fastpath/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the WebSocket endpoint and the token
// endpoints. Token generation carries its own stricter rate limit.
func RegisterAuthRoutes(r *gin.Engine, tokenLimiter *middleware.TokenRateLimiter) {
	// WebSocket endpoint for real-time status broadcasts
	r.GET("/ws", controllers.HandleWebSocket)

	auth := r.Group("/auth")
	{
		auth.GET("/token", middleware.TokenRateLimitMiddleware(tokenLimiter), controllers.HandleGetToken)
		auth.GET("/status", controllers.HandleTokenStatus)
	}
}
