// Package httpserver exposes the REST API and the dashboard WebSocket
// endpoint on echo.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/paul-reitz/relate.io/internal/app"
	"github.com/paul-reitz/relate.io/internal/broadcast"
	"github.com/paul-reitz/relate.io/internal/domain"
	"github.com/paul-reitz/relate.io/internal/platform/config"
)

type appService interface {
	CreateAdvisor(ctx context.Context, email, name, firm string) (*domain.Advisor, error)
	CreateClient(ctx context.Context, advisorID int64, name, email, riskProfile, momentumRef string) (*domain.Client, error)
	ListClients(ctx context.Context, advisorID int64) ([]domain.Client, error)
	SubmitFeedback(ctx context.Context, advisorID, clientID int64, channel, text string) (*domain.Feedback, error)
	SentimentTrends(ctx context.Context, advisorID int64, days int) ([]domain.TrendPoint, error)
	GetPortfolio(ctx context.Context, advisorID, clientID int64) (*domain.Portfolio, error)
	SyncPortfolios(ctx context.Context, advisorID int64) (*app.SyncResult, error)
	GetIntegrationStatus(ctx context.Context) app.IntegrationStatus
	PersonalizedContent(ctx context.Context, advisorID, clientID int64, goal string) (string, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app      appService
	registry *broadcast.Registry
	clock    clockwork.Clock

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, registry *broadcast.Registry, clock clockwork.Clock, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		registry:     registry,
		clock:        clock,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
