package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/api/authority"
	"github.com/communityboard/board-client/internal/api/handler"
	"github.com/communityboard/board-client/internal/api/middleware"
	"github.com/communityboard/board-client/internal/core/domain"
)

// NewRouter builds the stand-in board API with all routes registered. views
// receives accepted view increments; checks back the readiness probe.
func NewRouter(svc *authority.Service, views handler.ViewQueue, log zerolog.Logger, checks map[string]handler.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// Per-router registry for HTTP metrics; /metrics also serves the default one.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "board_stub",
		Registerer: httpMetrics,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(svc)
	adminHandler := handler.NewAdminHandler(svc)
	resourceHandler := handler.NewResourceHandler(svc, views)
	healthHandler := handler.NewHealthHandler(checks)
	authMiddleware := middleware.Auth(svc)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Session routes ---
	e.POST("/sessions", authHandler.Login)
	e.POST("/accounts", authHandler.Register)
	e.GET("/accounts/self/role", authHandler.Role, authMiddleware)

	// --- Content routes ---
	e.POST("/resources/:id/view", resourceHandler.View, middleware.OptionalAuth(svc))
	e.POST("/posts", resourceHandler.Publish(domain.ContentPost), authMiddleware)
	e.POST("/comments", resourceHandler.Publish(domain.ContentComment), authMiddleware)
	e.GET("/posts/:id", resourceHandler.Get(domain.ContentPost), authMiddleware)
	e.GET("/comments/:id", resourceHandler.Get(domain.ContentComment), authMiddleware)

	// --- Moderation routes (admin only) ---
	accounts := e.Group("/accounts/:id", authMiddleware, adminOnly)
	accounts.POST("/suspend", adminHandler.Suspend)
	accounts.POST("/unsuspend", adminHandler.Unsuspend)
	accounts.POST("/role", adminHandler.ChangeRole)

	admin := e.Group("/admin", authMiddleware, adminOnly)
	admin.GET("/accounts", adminHandler.ListAccounts)
	admin.DELETE("/accounts/:id", adminHandler.DeleteAccount)
	admin.DELETE("/posts/:id", adminHandler.DeleteContent(domain.ContentPost))
	admin.DELETE("/comments/:id", adminHandler.DeleteContent(domain.ContentComment))
	admin.POST("/posts/:id/suspend-author", adminHandler.SuspendAuthor(domain.ContentPost))
	admin.POST("/comments/:id/suspend-author", adminHandler.SuspendAuthor(domain.ContentComment))

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, httpMetrics},
	}))

	return e
}
