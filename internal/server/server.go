package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/cashflow-forecast/internal/auth"
	"example.com/cashflow-forecast/internal/config"
	"example.com/cashflow-forecast/internal/forecast"
	"example.com/cashflow-forecast/internal/handlers"
	"example.com/cashflow-forecast/internal/monitor"
	"example.com/cashflow-forecast/internal/notifications"
	"example.com/cashflow-forecast/internal/repository"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями. Монитор рисков
// возвращается отдельно: его расписанием управляет вызывающий код.
func New(cfg config.Config, logger *slog.Logger, db *pgxpool.Pool) (*echo.Echo, *monitor.Monitor) {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	userRepo := repository.NewUserRepository(db)
	forecastRepo := repository.NewForecastRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	notificationHub := notifications.NewHub()

	forecastService := forecast.NewService(forecastRepo, forecast.Settings{
		HorizonDays:      cfg.Forecast.HorizonDays,
		MaxHorizonDays:   cfg.Forecast.MaxHorizonDays,
		FallbackDaysLate: cfg.Forecast.FallbackDaysLate,
		Location:         cfg.Forecast.Location,
		FetchTimeout:     cfg.Forecast.FetchTimeout,
	}, logger.With(slog.String("component", "forecast")))
	riskMonitor := monitor.New(forecastService, adminRepo, notificationHub, logger.With(slog.String("component", "monitor")), monitor.Options{})

	authHandler := handlers.NewAuthHandler(userRepo, tokenManager)
	forecastHandler := handlers.NewForecastHandler(forecastService, forecastRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationHub)
	adminHandler := handlers.NewAdminHandler(adminRepo, riskMonitor)
	healthHandler := handlers.NewHealthHandler(db)

	registerRoutes(
		e,
		healthHandler,
		authHandler,
		forecastHandler,
		notificationHandler,
		adminHandler,
		auth.JWTMiddleware(tokenManager),
		auth.StreamJWTMiddleware(tokenManager),
		handlers.AdminMiddleware(userRepo, cfg.Admin.Emails),
		authRateLimiter(cfg.Auth),
		forecastRateLimiter(cfg.Forecast),
	)

	return e, riskMonitor
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// requestLogger пишет только путь запроса: query может содержать access_token.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURIPath:  true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func authRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	return memoryRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
}

// forecastRateLimiter ограничивает пересчеты прогноза, включая выгрузки.
func forecastRateLimiter(cfg config.ForecastConfig) echo.MiddlewareFunc {
	return memoryRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
}

func memoryRateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	limit := rate.Limit(float64(perMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     burst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
