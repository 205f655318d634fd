package momentum

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portfolioJSON = `{
	"reference": "MOM-123",
	"total_value": 250000.50,
	"currency": "ZAR",
	"as_of": "2026-08-25T08:00:00Z",
	"holdings": [
		{"symbol": "STXIND", "name": "Satrix INDI", "units": 120, "market_value": 150000.50, "asset_class": "equity"},
		{"symbol": "MMBOND", "name": "Momentum Bond Fund", "units": 80, "market_value": 100000, "asset_class": "fixed_income"}
	]
}`

func TestClient_FetchPortfolio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/portfolios/MOM-123", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(portfolioJSON))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "secret")

	portfolio, err := client.FetchPortfolio(context.Background(), "MOM-123")
	require.NoError(t, err)

	assert.Equal(t, 250000.50, portfolio.TotalValue)
	assert.Equal(t, "ZAR", portfolio.Currency)
	require.Len(t, portfolio.Holdings, 2)
	assert.Equal(t, "STXIND", portfolio.Holdings[0].Symbol)
	assert.Equal(t, 120.0, portfolio.Holdings[0].Quantity)
	assert.Equal(t, "fixed_income", portfolio.Holdings[1].AssetClass)
}

func TestClient_FetchPortfolioUnknownReference(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "secret")

	_, err := client.FetchPortfolio(context.Background(), "MOM-MISSING")
	assert.ErrorIs(t, err, ErrUnknownReference)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
}

func TestClient_FetchPortfolioRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(portfolioJSON))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "secret")
	client.policy.InitialBackoff = 0

	portfolio, err := client.FetchPortfolio(context.Background(), "MOM-123")
	require.NoError(t, err)
	assert.Equal(t, 250000.50, portfolio.TotalValue)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "secret")
	assert.NoError(t, client.Status(context.Background()))
}

func TestClient_StatusUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "secret")
	assert.Error(t, client.Status(context.Background()))
}
