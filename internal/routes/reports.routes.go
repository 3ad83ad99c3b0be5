package routes

import (
	"fastpath/internal/controllers"
	"fastpath/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterReportRoutes exposes qualification results and the combined
// optimization snapshot
func RegisterReportRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/status", controllers.GetStatus)
	r.GET("/profile", controllers.GetProfile)
	r.GET("/host", controllers.GetHostLoad)

	reports := r.Group("/reports")
	{
		reports.GET("/latest", controllers.GetLatestReport)
		reports.GET("/history", controllers.GetHistory)
		reports.GET("/targets/:operation", controllers.GetTargetStatus)
		reports.POST("/run", middleware.AuthRequired(), controllers.RunQualification)
	}
}
