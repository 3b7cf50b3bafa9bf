package routes

import (
	handlers "supportmatch/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupReportRoutes sets up the survivor-facing report routes. Submission
// accepts anonymous callers.
func SetupReportRoutes(r *gin.RouterGroup, reportHandler *handlers.ReportHandler, authed, optional []gin.HandlerFunc) {
	submit := r.Group("/reports")
	submit.Use(optional...)
	{
		submit.POST("", reportHandler.SubmitReport)
	}

	reports := r.Group("/reports")
	reports.Use(authed...)
	{
		reports.GET("/mine", reportHandler.ListMyReports)
		reports.GET("/:id", reportHandler.GetReport)
		reports.GET("/:id/matches", reportHandler.ListReportMatches)
		reports.POST("/:id/match", reportHandler.RematchReport)
	}
}
