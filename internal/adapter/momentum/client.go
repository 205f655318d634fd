// Package momentum is the HTTP client for the Momentum partner API, used to
// pull client portfolio snapshots during sync.
package momentum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/paul-reitz/relate.io/internal/domain"
	"github.com/paul-reitz/relate.io/internal/platform/retry"
)

const requestTimeout = 15 * time.Second

// ErrUnknownReference means the partner does not know the client reference.
// Sync treats it as a per-client skip, not a failure.
var ErrUnknownReference = errors.New("unknown portfolio reference")

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	policy     retry.Policy
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   250 * time.Millisecond,
			RateLimitBackoff: 2 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Retrying Momentum request", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

type portfolioResponse struct {
	Reference  string    `json:"reference"`
	TotalValue float64   `json:"total_value"`
	Currency   string    `json:"currency"`
	AsOf       time.Time `json:"as_of"`
	Holdings   []struct {
		Symbol      string  `json:"symbol"`
		Name        string  `json:"name"`
		Units       float64 `json:"units"`
		MarketValue float64 `json:"market_value"`
		AssetClass  string  `json:"asset_class"`
	} `json:"holdings"`
}

// FetchPortfolio pulls the current portfolio snapshot for a partner-side
// client reference. The caller attaches the snapshot to its own client ID.
func (c *Client) FetchPortfolio(ctx context.Context, ref string) (*domain.Portfolio, error) {
	result, err := retry.Do(ctx, c.policy, classifyError, func() (*portfolioResponse, error) {
		return c.fetch(ctx, ref)
	})
	if err != nil {
		var permanent *retry.PermanentError
		if errors.As(err, &permanent) && errors.Is(permanent.Err, ErrUnknownReference) {
			return nil, ErrUnknownReference
		}
		return nil, err
	}

	portfolio := &domain.Portfolio{
		TotalValue: result.TotalValue,
		Currency:   result.Currency,
		SyncedAt:   result.AsOf,
	}
	if portfolio.Currency == "" {
		portfolio.Currency = "ZAR"
	}
	if portfolio.SyncedAt.IsZero() {
		portfolio.SyncedAt = time.Now()
	}
	for _, h := range result.Holdings {
		portfolio.Holdings = append(portfolio.Holdings, domain.Holding{
			Symbol:     h.Symbol,
			Name:       h.Name,
			Quantity:   h.Units,
			Value:      h.MarketValue,
			AssetClass: h.AssetClass,
		})
	}
	return portfolio, nil
}

// Status checks partner availability. Used by the integrations status
// endpoint and the readiness probe.
func (c *Client) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/ping", nil)
	if err != nil {
		return fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("momentum status check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("momentum status check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, ref string) (*portfolioResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/portfolios/"+ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("momentum request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read momentum response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUnknownReference
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &statusError{status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &statusError{status: resp.StatusCode}
	}

	var result portfolioResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode momentum response: %w", err)
	}
	return &result, nil
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("momentum returned status %d", e.status)
}

func classifyError(err error) retry.Action {
	if errors.Is(err, ErrUnknownReference) {
		return retry.Stop
	}
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == http.StatusTooManyRequests:
			return retry.After
		case se.status >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	return retry.Retry
}
