package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/paul-reitz/relate.io/internal/platform/version"
)

// HealthCheck is a named readiness probe against a dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func (s *Server) handleStartup(c echo.Context) error {
	uptime := time.Since(s.startTime)
	if err := c.JSON(http.StatusOK, map[string]any{
		"status": "started",
		"uptime": uptime.String(),
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLiveness(c echo.Context) error {
	if err := c.JSON(http.StatusOK, map[string]string{"status": "alive"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.healthChecks))
	healthy := true
	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			slog.WarnContext(ctx, "Readiness check failed", "check", hc.Name, "error", err)
			checks[hc.Name] = "unhealthy"
			healthy = false
			continue
		}
		checks[hc.Name] = "healthy"
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}

	if err := c.JSON(status, map[string]any{
		"status": overall,
		"checks": checks,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
