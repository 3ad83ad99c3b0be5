package routes

import (
	"fastpath/internal/controllers"
	"fastpath/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPatchRoutes exposes the patch site inventory and the
// apply/rollback/reset operations. Mutations require a valid token.
func RegisterPatchRoutes(r *gin.Engine) {
	patches := r.Group("/patches")
	{
		patches.GET("/", controllers.ListSites)
		patches.GET("/records", controllers.GetRecords)
		patches.GET("/stats", controllers.GetStats)
		patches.GET("/:id", controllers.GetSite)

		protected := patches.Group("", middleware.AuthRequired())
		{
			protected.POST("/rollback-all", controllers.RollbackAllSites)
			protected.POST("/:id/apply", controllers.ApplySite)
			protected.POST("/:id/rollback", controllers.RollbackSite)
			protected.POST("/:id/reset", controllers.ResetSite)
		}
	}
}
