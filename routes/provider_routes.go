package routes

import (
	handlers "supportmatch/internal/handlers/shared"
	"supportmatch/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupServiceRoutes(r *gin.RouterGroup, serviceHandler *handlers.SupportServiceHandler, authed []gin.HandlerFunc) {
	services := r.Group("/services")
	services.Use(authed...)
	{
		services.GET("/:id", serviceHandler.GetService)
	}

	owned := r.Group("/services")
	owned.Use(authed...)
	owned.Use(middleware.ProviderRequired())
	{
		owned.POST("", serviceHandler.RegisterService)
		owned.GET("/mine", serviceHandler.ListMyServices)
	}
}

// SetupMatchRoutes exposes the provider inbox. GetMatch is also open to the
// report owner, so it only needs authentication.
func SetupMatchRoutes(r *gin.RouterGroup, matchHandler *handlers.MatchHandler, authed []gin.HandlerFunc) {
	matches := r.Group("/matches")
	matches.Use(authed...)
	{
		matches.GET("/:id", matchHandler.GetMatch)
	}

	inbox := r.Group("/matches")
	inbox.Use(authed...)
	inbox.Use(middleware.ProviderRequired())
	{
		inbox.GET("", matchHandler.ListMatches)
		inbox.POST("/:id/accept", matchHandler.AcceptMatch)
		inbox.POST("/:id/decline", matchHandler.DeclineMatch)
	}
}

func SetupAppointmentRoutes(r *gin.RouterGroup, appointmentHandler *handlers.AppointmentHandler, authed []gin.HandlerFunc) {
	appointments := r.Group("/appointments")
	appointments.Use(authed...)
	{
		appointments.GET("", appointmentHandler.ListAppointments)
		appointments.GET("/:id", appointmentHandler.GetAppointment)
		appointments.PUT("/:id/status", appointmentHandler.UpdateAppointmentStatus)
	}
}
