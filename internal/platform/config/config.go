package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// AI service (opaque text generation + sentiment scoring). An empty key
	// switches the adapter to the built-in keyword scorer.
	AIBaseURL string `env:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIAPIKey  string `env:"AI_API_KEY"`
	AIModel   string `env:"AI_MODEL" default:"gpt-4o-mini"`

	// Momentum partner API for portfolio sync.
	MomentumBaseURL string `env:"MOMENTUM_API_URL" default:"https://api.momentum.co.za"`
	MomentumAPIKey  string `env:"MOMENTUM_API_KEY"`

	// Real-time fan-out limits.
	MaxWebSocketConnections int           `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	WebSocketWriteTimeout   time.Duration `env:"WEBSOCKET_WRITE_TIMEOUT" default:"5s"`

	// Sentiment trends cache TTL in Redis.
	TrendsCacheTTL time.Duration `env:"TRENDS_CACHE_TTL" default:"60s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.MaxWebSocketConnections <= 0 {
		return fmt.Errorf("MAX_WEBSOCKET_CONNECTIONS must be positive, got %d", cfg.MaxWebSocketConnections)
	}
	if cfg.WebSocketWriteTimeout <= 0 {
		return fmt.Errorf("WEBSOCKET_WRITE_TIMEOUT must be positive, got %v", cfg.WebSocketWriteTimeout)
	}

	return nil
}
