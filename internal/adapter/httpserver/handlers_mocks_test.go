package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/paul-reitz/relate.io/internal/app"
	"github.com/paul-reitz/relate.io/internal/broadcast"
	"github.com/paul-reitz/relate.io/internal/domain"
	"github.com/paul-reitz/relate.io/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	createAdvisorFn       func(ctx context.Context, email, name, firm string) (*domain.Advisor, error)
	createClientFn        func(ctx context.Context, advisorID int64, name, email, riskProfile, momentumRef string) (*domain.Client, error)
	listClientsFn         func(ctx context.Context, advisorID int64) ([]domain.Client, error)
	submitFeedbackFn      func(ctx context.Context, advisorID, clientID int64, channel, text string) (*domain.Feedback, error)
	sentimentTrendsFn     func(ctx context.Context, advisorID int64, days int) ([]domain.TrendPoint, error)
	getPortfolioFn        func(ctx context.Context, advisorID, clientID int64) (*domain.Portfolio, error)
	syncPortfoliosFn      func(ctx context.Context, advisorID int64) (*app.SyncResult, error)
	integrationStatusFn   func(ctx context.Context) app.IntegrationStatus
	personalizedContentFn func(ctx context.Context, advisorID, clientID int64, goal string) (string, error)
}

func (m *mockAppService) CreateAdvisor(ctx context.Context, email, name, firm string) (*domain.Advisor, error) {
	if m.createAdvisorFn != nil {
		return m.createAdvisorFn(ctx, email, name, firm)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) CreateClient(ctx context.Context, advisorID int64, name, email, riskProfile, momentumRef string) (*domain.Client, error) {
	if m.createClientFn != nil {
		return m.createClientFn(ctx, advisorID, name, email, riskProfile, momentumRef)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListClients(ctx context.Context, advisorID int64) ([]domain.Client, error) {
	if m.listClientsFn != nil {
		return m.listClientsFn(ctx, advisorID)
	}
	return nil, nil
}

func (m *mockAppService) SubmitFeedback(ctx context.Context, advisorID, clientID int64, channel, text string) (*domain.Feedback, error) {
	if m.submitFeedbackFn != nil {
		return m.submitFeedbackFn(ctx, advisorID, clientID, channel, text)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) SentimentTrends(ctx context.Context, advisorID int64, days int) ([]domain.TrendPoint, error) {
	if m.sentimentTrendsFn != nil {
		return m.sentimentTrendsFn(ctx, advisorID, days)
	}
	return nil, nil
}

func (m *mockAppService) GetPortfolio(ctx context.Context, advisorID, clientID int64) (*domain.Portfolio, error) {
	if m.getPortfolioFn != nil {
		return m.getPortfolioFn(ctx, advisorID, clientID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) SyncPortfolios(ctx context.Context, advisorID int64) (*app.SyncResult, error) {
	if m.syncPortfoliosFn != nil {
		return m.syncPortfoliosFn(ctx, advisorID)
	}
	return &app.SyncResult{}, nil
}

func (m *mockAppService) GetIntegrationStatus(ctx context.Context) app.IntegrationStatus {
	if m.integrationStatusFn != nil {
		return m.integrationStatusFn(ctx)
	}
	return app.IntegrationStatus{Momentum: "connected", AI: "configured"}
}

func (m *mockAppService) PersonalizedContent(ctx context.Context, advisorID, clientID int64, goal string) (string, error) {
	if m.personalizedContentFn != nil {
		return m.personalizedContentFn(ctx, advisorID, clientID, goal)
	}
	return "", errors.New("not implemented")
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	srv := &Server{
		echo:      echo.New(),
		config:    &config.Config{Port: "8080", MaxWebSocketConnections: 16},
		app:       app,
		registry:  broadcast.NewRegistry(16),
		clock:     clockwork.NewRealClock(),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withRegistry(registry *broadcast.Registry) func(*Server) {
	return func(s *Server) {
		s.registry = registry
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

func authedContext(srv *Server, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := srv.echo.NewContext(req, rec)
	c.Set("advisorID", int64(1))
	return c
}
