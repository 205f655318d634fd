package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
	"github.com/paul-reitz/relate.io/internal/domain"
)

// TrendsCache caches per-advisor sentiment trend aggregates in Redis in
// front of the PostgreSQL aggregation query. Refills are deduplicated with
// singleflight so a cold key costs one query no matter how many dashboards
// ask at once.
type TrendsCache struct {
	rdb     *goredis.Client
	repo    domain.FeedbackRepository
	ttl     time.Duration
	refills singleflight.Group
}

func NewTrendsCache(rdb *goredis.Client, repo domain.FeedbackRepository, ttl time.Duration) *TrendsCache {
	return &TrendsCache{rdb: rdb, repo: repo, ttl: ttl}
}

func trendsKey(advisorID int64, days int) string {
	return fmt.Sprintf("trends:%d:%d", advisorID, days)
}

// SentimentTrends serves from Redis when possible and falls through to the
// repository otherwise. A Redis outage degrades to uncached queries.
func (c *TrendsCache) SentimentTrends(ctx context.Context, advisorID int64, days int) ([]domain.TrendPoint, error) {
	key := trendsKey(advisorID, days)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var points []domain.TrendPoint
		if err := json.Unmarshal(cached, &points); err == nil {
			metrics.TrendsCacheHits.Inc()
			return points, nil
		}
		slog.Warn("Discarding corrupt trends cache entry", "key", key)
	} else if !errors.Is(err, goredis.Nil) {
		slog.Warn("Trends cache read failed, falling through to database", "key", key, "error", err)
	}

	metrics.TrendsCacheMisses.Inc()

	result, err, _ := c.refills.Do(key, func() (any, error) {
		points, err := c.repo.SentimentTrends(ctx, advisorID, days)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(points); err == nil {
			if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
				slog.Warn("Failed to store trends cache entry", "key", key, "error", err)
			}
		}
		return points, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.TrendPoint), nil
}

// Invalidate drops all cached windows for an advisor. Called after a
// feedback commit so dashboards refetch fresh aggregates.
func (c *TrendsCache) Invalidate(ctx context.Context, advisorID int64) {
	pattern := fmt.Sprintf("trends:%d:*", advisorID)

	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Trends cache invalidation scan failed", "advisor_id", advisorID, "error", err)
		return
	}

	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			slog.Warn("Trends cache invalidation failed", "advisor_id", advisorID, "error", err)
			return
		}
	}
	metrics.TrendsCacheInvalidations.Inc()
}
