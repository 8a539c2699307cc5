package server

import (
	"github.com/labstack/echo/v4"

	"example.com/cashflow-forecast/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	forecastHandler *handlers.ForecastHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
	authMiddleware echo.MiddlewareFunc,
	streamAuthMiddleware echo.MiddlewareFunc,
	adminMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
	forecastRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", healthHandler.Health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", authRateLimiter)

	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me, authMiddleware)

	forecasts := api.Group("/forecast", authMiddleware, forecastRateLimiter)
	forecasts.GET("", forecastHandler.Get)
	forecasts.GET("/summary", forecastHandler.Summary)
	forecasts.GET("/lateness", forecastHandler.Lateness)
	forecasts.GET("/export/csv", forecastHandler.ExportCSV)
	forecasts.GET("/export/xlsx", forecastHandler.ExportXLSX)

	notifications := api.Group("/notifications", streamAuthMiddleware)
	notifications.GET("/stream", notificationHandler.Stream)

	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.GET("/companies", adminHandler.ListCompanies)
	admin.GET("/risks", adminHandler.Risks)
}
