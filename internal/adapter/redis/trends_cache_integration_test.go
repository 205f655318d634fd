package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/paul-reitz/relate.io/internal/domain"
)

var (
	testRedisURL string
	redContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	// Parse flags to check for -short
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redContainer, err = rediscontainer.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	defer func() {
		if err := redContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()
	os.Exit(m.Run())
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := Connect(ctx, testRedisURL)
	require.NoError(t, err)

	// Flush all keys before each test
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// countingRepo counts how often the underlying aggregation runs.
type countingRepo struct {
	mu     sync.Mutex
	calls  int
	points []domain.TrendPoint
}

func (r *countingRepo) Create(_ context.Context, _ *domain.Feedback) error { return nil }

func (r *countingRepo) SentimentTrends(_ context.Context, _ int64, _ int) ([]domain.TrendPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.points, nil
}

func (r *countingRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestTrendsCache_ServesFromCacheAfterFirstQuery(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	repo := &countingRepo{points: []domain.TrendPoint{
		{Day: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), AverageScore: 0.4, Count: 3},
	}}
	cache := NewTrendsCache(client, repo, time.Minute)

	first, err := cache.SentimentTrends(ctx, 1, 30)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repo.callCount())

	second, err := cache.SentimentTrends(ctx, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.callCount(), "second lookup must be served from cache")
}

func TestTrendsCache_InvalidateForcesRefetch(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	repo := &countingRepo{points: []domain.TrendPoint{
		{Day: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), AverageScore: -0.2, Count: 1},
	}}
	cache := NewTrendsCache(client, repo, time.Minute)

	_, err := cache.SentimentTrends(ctx, 7, 30)
	require.NoError(t, err)
	_, err = cache.SentimentTrends(ctx, 7, 90)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.callCount())

	cache.Invalidate(ctx, 7)

	_, err = cache.SentimentTrends(ctx, 7, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.callCount(), "invalidation must drop every window for the advisor")
}

func TestTrendsCache_InvalidateLeavesOtherAdvisorsAlone(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	repo := &countingRepo{}
	cache := NewTrendsCache(client, repo, time.Minute)

	_, err := cache.SentimentTrends(ctx, 1, 30)
	require.NoError(t, err)
	_, err = cache.SentimentTrends(ctx, 2, 30)
	require.NoError(t, err)
	calls := repo.callCount()

	cache.Invalidate(ctx, 1)

	_, err = cache.SentimentTrends(ctx, 2, 30)
	require.NoError(t, err)
	assert.Equal(t, calls, repo.callCount(), "advisor 2 must still be cached")
}
