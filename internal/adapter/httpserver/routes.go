package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= 500 {
				level = slog.LevelError
			}
			slog.LogAttrs(c.Request().Context(), level, "Request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(correlationMiddleware)
	s.echo.Use(ErrorHandlingMiddleware())

	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.GET("/ws/:advisor_id", s.handleWebSocket, newRateLimiter(5, 10))

	api := s.echo.Group("/api/v1")
	api.POST("/advisors", s.handleCreateAdvisor)

	authed := api.Group("", s.requireAuth)
	authed.POST("/clients", s.handleCreateClient)
	authed.GET("/clients", s.handleListClients)
	authed.POST("/feedback/advanced", s.handleSubmitFeedback)
	authed.GET("/portfolios/:client_id", s.handleGetPortfolio)
	authed.GET("/analytics/sentiment-trends", s.handleSentimentTrends)
	authed.POST("/integrations/momentum/sync", s.handleSyncPortfolios)
	authed.GET("/integrations/status", s.handleIntegrationStatus)
	authed.POST("/ai/personalized-content", s.handlePersonalizedContent)

	// Legacy ingestion path kept for the embeddable feedback widget.
	s.echo.POST("/feedback", s.handleSubmitFeedback, s.requireAuth, newRateLimiter(10, 20))
}
