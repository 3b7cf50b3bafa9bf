package routes

import (
	handlers "supportmatch/internal/handlers/shared"
	"supportmatch/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAdminRoutes(r *gin.RouterGroup, adminHandler *handlers.AdminHandler, authed []gin.HandlerFunc) {
	admin := r.Group("/admin")
	admin.Use(authed...)
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/matches/sweep", adminHandler.SweepPendingMatches)
	}
}
