package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/paul-reitz/relate.io/internal/adapter/ai"
	"github.com/paul-reitz/relate.io/internal/adapter/email"
	"github.com/paul-reitz/relate.io/internal/adapter/httpserver"
	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
	"github.com/paul-reitz/relate.io/internal/adapter/momentum"
	"github.com/paul-reitz/relate.io/internal/adapter/postgres"
	"github.com/paul-reitz/relate.io/internal/adapter/redis"
	"github.com/paul-reitz/relate.io/internal/app"
	"github.com/paul-reitz/relate.io/internal/broadcast"
	"github.com/paul-reitz/relate.io/internal/domain"
	"github.com/paul-reitz/relate.io/internal/platform/config"
	"github.com/paul-reitz/relate.io/internal/platform/logging"
	"github.com/paul-reitz/relate.io/internal/platform/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func healthChecks(pool *pgxpool.Pool, redisClient *goredis.Client) []httpserver.HealthCheck {
	return []httpserver.HealthCheck{
		{Name: "database", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	}
}

func runGracefulShutdown(srv *httpserver.Server, registry *broadcast.Registry) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		registry.CloseAll("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	info := version.Get()
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	advisorRepo := postgres.NewAdvisorRepo(pool)
	clientRepo := postgres.NewClientRepo(pool)
	feedbackRepo := postgres.NewFeedbackRepo(pool)
	portfolioRepo := postgres.NewPortfolioRepo(pool)

	trendsCache := redis.NewTrendsCache(redisClient, feedbackRepo, cfg.TrendsCacheTTL)

	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
	scorer := ai.NewScorer(aiClient)
	momentumClient := momentum.NewClient(cfg.MomentumBaseURL, cfg.MomentumAPIKey)

	registry := broadcast.NewRegistry(cfg.MaxWebSocketConnections)
	router := broadcast.NewRouter(registry, clock)

	// Pass nil explicitly when AI is unconfigured to avoid a typed-nil interface
	var generator domain.ContentGenerator
	if aiClient.Configured() {
		generator = aiClient
	}

	appSvc := app.NewService(app.Dependencies{
		Advisors:   advisorRepo,
		Clients:    clientRepo,
		Feedback:   feedbackRepo,
		Portfolios: portfolioRepo,
		Trends:     trendsCache,
		Scorer:     scorer,
		Generator:  generator,
		Momentum:   momentumClient,
		Email:      email.NewLogSender(),
		Publisher:  router,
		Clock:      clock,
	})

	srv := httpserver.NewServer(cfg, appSvc, registry, clock, healthChecks(pool, redisClient))

	done := runGracefulShutdown(srv, registry)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
