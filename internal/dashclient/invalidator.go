// Package dashclient is the dashboard-side consumer of the change event
// stream. It keeps a local read cache coherent by invalidating entries when
// the server announces a change; the dashboard then refetches on demand.
package dashclient

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Cache keys the dashboard caches responses under.
const (
	KeySentimentTrends = "sentiment-trends"
	KeyClients         = "clients"
)

// PortfolioKey returns the cache key for one client's portfolio.
func PortfolioKey(clientID int64) string {
	return fmt.Sprintf("portfolio:%d", clientID)
}

// Store is the dashboard's local read cache.
type Store interface {
	Invalidate(keys ...string)
	InvalidateAll()
}

// Invalidator maps incoming change events to cache invalidations. The
// mapping is fixed per event type; events never carry payload data into the
// cache, they only mark entries stale.
type Invalidator struct {
	store Store
}

func NewInvalidator(store Store) *Invalidator {
	return &Invalidator{store: store}
}

type eventEnvelope struct {
	Type     string `json:"type"`
	ClientID int64  `json:"client_id"`
}

// HandleMessage processes one raw frame from the event stream. Malformed
// frames and unknown event types are dropped; a dashboard must keep working
// against newer servers that emit event types it does not know yet.
func (i *Invalidator) HandleMessage(payload []byte) {
	var event eventEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		slog.Debug("Dropping malformed event frame", "error", err)
		return
	}

	switch event.Type {
	case "new_feedback":
		i.store.Invalidate(KeySentimentTrends, KeyClients)
	case "portfolio_synced":
		i.store.Invalidate(KeyClients, PortfolioKey(event.ClientID))
	case "client_created":
		i.store.Invalidate(KeyClients)
	default:
		slog.Debug("Ignoring unknown event type", "type", event.Type)
	}
}
