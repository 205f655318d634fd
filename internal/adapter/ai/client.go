// Package ai calls an OpenAI-compatible endpoint for sentiment scoring and
// content generation. The endpoint is treated as an opaque text service;
// when no API key is configured every operation falls back to the built-in
// keyword scorer.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
	"github.com/paul-reitz/relate.io/internal/platform/retry"
)

const requestTimeout = 30 * time.Second

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	cb         circuitbreaker.CircuitBreaker[string]
	policy     retry.Policy
}

func NewClient(baseURL, apiKey, model string) *Client {
	cb := circuitbreaker.Builder[string]().
		WithFailureRateThreshold(60, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "ai",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues("ai").Set(stateToFloat(e.NewState))
		}).
		Build()

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   500 * time.Millisecond,
			RateLimitBackoff: 5 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Retrying AI request", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// Configured reports whether an API key is present. Unconfigured clients
// serve the keyword fallback instead of calling out.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Generate produces a completion for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	result, err := retry.Do(ctx, c.policy, classifyAIError, func() (string, error) {
		return c.complete(ctx, prompt)
	})
	metrics.AIRequestDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues("generate", "error").Inc()
		return "", err
	}
	metrics.AIRequestsTotal.WithLabelValues("generate", "success").Inc()
	return result, nil
}

func classifyAIError(err error) retry.Action {
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.status == http.StatusTooManyRequests:
			return retry.After
		case httpErr.status >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return retry.Stop
	}
	// Network-level failure
	return retry.Retry
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ai service returned status %d: %s", e.status, e.body)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if !c.cb.TryAcquirePermit() {
		return "", fmt.Errorf("ai request rejected: %w", circuitbreaker.ErrOpen)
	}

	content, err := c.doComplete(ctx, prompt)
	if err != nil {
		c.cb.RecordError(err)
		return "", err
	}
	c.cb.RecordSuccess()
	return content, nil
}

func (c *Client) doComplete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read ai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode ai response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("ai response contained no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}
