package routes

import (
	handlers "supportmatch/internal/handlers/shared"
	"supportmatch/internal/middleware"
	"supportmatch/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Report      *handlers.ReportHandler
	Service     *handlers.SupportServiceHandler
	Match       *handlers.MatchHandler
	Appointment *handlers.AppointmentHandler
	Admin       *handlers.AdminHandler
	Health      *handlers.HealthHandler
	WebSocket   *websocket.Handler
}

type Options struct {
	JWTSecret     string
	WebSocketPath string
	// RateLimit is applied after authentication so limits are per user when known.
	RateLimit gin.HandlerFunc
}

// Setup registers every API route on router.
func Setup(router *gin.Engine, h *Handlers, opts Options) {
	router.GET("/health", h.Health.Health)

	if h.WebSocket != nil {
		router.GET(opts.WebSocketPath, middleware.AuthRequired(opts.JWTSecret), h.WebSocket.HandleWebSocket)
	}

	v1 := router.Group("/api/v1")

	authed := []gin.HandlerFunc{middleware.AuthRequired(opts.JWTSecret)}
	optional := []gin.HandlerFunc{middleware.OptionalAuth(opts.JWTSecret)}
	if opts.RateLimit != nil {
		authed = append(authed, opts.RateLimit)
		optional = append(optional, opts.RateLimit)
	}

	SetupReportRoutes(v1, h.Report, authed, optional)
	SetupServiceRoutes(v1, h.Service, authed)
	SetupMatchRoutes(v1, h.Match, authed)
	SetupAppointmentRoutes(v1, h.Appointment, authed)
	if h.Admin != nil {
		SetupAdminRoutes(v1, h.Admin, authed)
	}
}
