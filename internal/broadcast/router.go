package broadcast

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
	"github.com/paul-reitz/relate.io/internal/domain"
)

// Router fans committed change events out to the owning advisor's live
// connections. Delivery is best effort, at most once per connection.
type Router struct {
	registry *Registry
	clock    clockwork.Clock
}

// NewRouter creates a router on top of the given registry.
func NewRouter(registry *Registry, clock clockwork.Clock) *Router {
	return &Router{registry: registry, clock: clock}
}

// Publish serializes the event once and attempts delivery to every
// connection registered for the event's advisor. A failed write evicts that
// connection and never affects the others. Zero connections is a no-op.
func (rt *Router) Publish(ctx context.Context, event domain.ChangeEvent) {
	data, err := domain.EncodeEvent(event)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to serialize change event",
			"kind", string(event.Kind()),
			"advisor_id", event.Advisor(),
			"error", err,
		)
		metrics.BroadcastSerializationErrors.Inc()
		return
	}

	metrics.BroadcastEventsPublished.WithLabelValues(string(event.Kind())).Inc()

	conns := rt.registry.ConnectionsFor(event.Advisor())
	if len(conns) == 0 {
		return
	}

	start := rt.clock.Now()
	for _, conn := range conns {
		if err := conn.Transport.Send(data); err != nil {
			slog.WarnContext(ctx, "Evicting dashboard connection after failed delivery",
				"conn_id", conn.ID.String(),
				"advisor_id", conn.AdvisorID,
				"error", err,
			)
			metrics.BroadcastDeliveryFailures.Inc()
			rt.registry.Unregister(conn.ID)
		}
	}
	metrics.BroadcastFanoutDuration.Observe(rt.clock.Since(start).Seconds())
}
