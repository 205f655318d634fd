package broadcast

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
)

// ErrRegistryFull is returned by Register when the global connection cap is
// reached. Callers map it to HTTP 429.
var ErrRegistryFull = errors.New("connection registry full")

// Transport is one live dashboard connection. Send must not block
// indefinitely; a returned error means the connection is unusable and will
// not recover. Close is idempotent.
type Transport interface {
	Send(message []byte) error
	Close(reason string)
}

// Conn is a registered connection as seen in a registry snapshot.
type Conn struct {
	ID        uuid.UUID
	AdvisorID int64
	Transport Transport
}

// Registry tracks live connections keyed by advisor. All state is in memory;
// a restart starts empty and clients reconnect.
type Registry struct {
	mu        sync.RWMutex
	maxConns  int
	total     int
	byAdvisor map[int64]map[uuid.UUID]Transport
	advisorOf map[uuid.UUID]int64
}

// NewRegistry creates a registry with a global connection cap.
func NewRegistry(maxConns int) *Registry {
	return &Registry{
		maxConns:  maxConns,
		byAdvisor: make(map[int64]map[uuid.UUID]Transport),
		advisorOf: make(map[uuid.UUID]int64),
	}
}

// Register adds a connection under the given advisor and returns its ID.
// The only failure mode is ErrRegistryFull. The transport belongs to the
// registry until Unregister; it is never reassigned to another advisor.
func (r *Registry) Register(advisorID int64, transport Transport) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.total >= r.maxConns {
		metrics.BroadcastRegistrationsRejected.Inc()
		return uuid.Nil, ErrRegistryFull
	}

	id := uuid.New()
	conns, exists := r.byAdvisor[advisorID]
	if !exists {
		conns = make(map[uuid.UUID]Transport)
		r.byAdvisor[advisorID] = conns
	}
	conns[id] = transport
	r.advisorOf[id] = advisorID
	r.total++

	metrics.BroadcastActiveConnections.Set(float64(r.total))
	metrics.BroadcastActiveAdvisors.Set(float64(len(r.byAdvisor)))
	return id, nil
}

// Unregister removes a connection and closes its transport. Unknown IDs are
// a no-op, so double unregistration (read pump exit racing a failed write)
// is safe.
func (r *Registry) Unregister(connID uuid.UUID) {
	r.mu.Lock()
	advisorID, exists := r.advisorOf[connID]
	if !exists {
		r.mu.Unlock()
		return
	}

	conns := r.byAdvisor[advisorID]
	transport := conns[connID]
	delete(conns, connID)
	delete(r.advisorOf, connID)
	if len(conns) == 0 {
		delete(r.byAdvisor, advisorID)
	}
	r.total--

	metrics.BroadcastActiveConnections.Set(float64(r.total))
	metrics.BroadcastActiveAdvisors.Set(float64(len(r.byAdvisor)))
	r.mu.Unlock()

	// Close outside the lock; Close may block on a write deadline.
	transport.Close("unregistered")
}

// ConnectionsFor returns a snapshot of the advisor's connections. The slice
// is a copy; concurrent register/unregister never mutates it.
func (r *Registry) ConnectionsFor(advisorID int64) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byAdvisor[advisorID]
	if len(conns) == 0 {
		return nil
	}

	snapshot := make([]Conn, 0, len(conns))
	for id, transport := range conns {
		snapshot = append(snapshot, Conn{ID: id, AdvisorID: advisorID, Transport: transport})
	}
	return snapshot
}

// Count returns the total number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// CountFor returns the number of registered connections for one advisor.
func (r *Registry) CountFor(advisorID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAdvisor[advisorID])
}

// CloseAll closes every connection with the given reason. Used during
// graceful shutdown.
func (r *Registry) CloseAll(reason string) {
	r.mu.Lock()
	transports := make([]Transport, 0, r.total)
	for _, conns := range r.byAdvisor {
		for _, transport := range conns {
			transports = append(transports, transport)
		}
	}
	r.byAdvisor = make(map[int64]map[uuid.UUID]Transport)
	r.advisorOf = make(map[uuid.UUID]int64)
	r.total = 0
	metrics.BroadcastActiveConnections.Set(0)
	metrics.BroadcastActiveAdvisors.Set(0)
	r.mu.Unlock()

	for _, transport := range transports {
		transport.Close(reason)
	}
}
