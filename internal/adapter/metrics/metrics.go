// Package metrics defines all Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast Metrics
var (
	// BroadcastActiveConnections tracks current registered dashboard connections
	BroadcastActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_active_connections",
			Help: "Current number of registered dashboard connections",
		},
	)

	// BroadcastActiveAdvisors tracks number of advisors with at least one connection
	BroadcastActiveAdvisors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_active_advisors",
			Help: "Number of advisors with at least one live dashboard connection",
		},
	)

	// BroadcastEventsPublished tracks published change events by kind
	BroadcastEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_events_published_total",
			Help: "Total change events published by kind",
		},
		[]string{"kind"},
	)

	// BroadcastDeliveryFailures tracks per-connection delivery failures
	BroadcastDeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_delivery_failures_total",
			Help: "Total per-connection delivery failures (connection evicted)",
		},
	)

	// BroadcastSerializationErrors tracks event marshal failures
	BroadcastSerializationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_serialization_errors_total",
			Help: "Total change events dropped because serialization failed",
		},
	)

	// BroadcastRegistrationsRejected tracks registrations rejected at the global cap
	BroadcastRegistrationsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_registrations_rejected_total",
			Help: "Total connection registrations rejected due to the global cap",
		},
	)

	// BroadcastFanoutDuration tracks per-publish fan-out duration
	BroadcastFanoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcast_fanout_duration_seconds",
			Help:    "Duration of a single publish fan-out in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)
)

// WebSocket Metrics
var (
	// WebSocketConnectionsTotal tracks connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connection attempts by result (success/error/rejected)",
		},
		[]string{"result"},
	)

	// WebSocketConnectionsRejected tracks rejected connection attempts by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total WebSocket connections rejected by reason (rate_limit/ip_limit/global_limit)",
		},
		[]string{"reason"},
	)

	// WebSocketMessageSendDuration tracks WebSocket message send duration
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// WebSocketConnectionDuration tracks WebSocket connection duration
	WebSocketConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_connection_duration_seconds",
			Help:    "WebSocket connection duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
		},
	)

	// WebSocketPingFailures tracks WebSocket ping failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures (client not responding)",
		},
	)

	// WebSocketIdleDisconnects tracks disconnects due to idle timeout
	WebSocketIdleDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_idle_disconnects_total",
			Help: "Total WebSocket connections closed due to idle timeout",
		},
	)
)

// External Service Metrics
var (
	// AIRequestsTotal tracks AI service calls by operation and result
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total AI service requests by operation and result (success/error/fallback)",
		},
		[]string{"operation", "result"},
	)

	// AIRequestDuration tracks AI service call latency
	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI service request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// MomentumSyncTotal tracks partner portfolio syncs by result
	MomentumSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "momentum_sync_total",
			Help: "Total Momentum portfolio syncs by result (synced/skipped/error)",
		},
		[]string{"result"},
	)
)

// Cache Metrics
var (
	// TrendsCacheHits tracks sentiment trends served from Redis
	TrendsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trends_cache_hits_total",
			Help: "Total sentiment trend lookups served from Redis cache",
		},
	)

	// TrendsCacheMisses tracks sentiment trends that fell through to PostgreSQL
	TrendsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trends_cache_misses_total",
			Help: "Total sentiment trend lookups that fell through to PostgreSQL",
		},
	)

	// TrendsCacheInvalidations tracks commit-time cache invalidations
	TrendsCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trends_cache_invalidations_total",
			Help: "Total sentiment trend cache invalidations after feedback commits",
		},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query",
		},
		[]string{"query"},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)
