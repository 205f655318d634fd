// Package broadcast implements the real-time notification path between
// committed data changes and advisor dashboards.
//
// The Registry tracks live WebSocket connections per advisor behind a single
// RWMutex and hands out copy-on-read snapshots. The Router serializes each
// change event once and fans it out best effort; a connection that fails a
// write is unregistered on the spot. Per-connection write goroutines keep
// dispatch ordered and isolate slow clients.
package broadcast
