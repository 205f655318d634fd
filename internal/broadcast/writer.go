package broadcast

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
)

const (
	defaultWriteTimeout = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	idleTimeout       = 5 * time.Minute
	idleWarningTime   = 4 * time.Minute // Warn 1 minute before disconnect
	messageBufferSize = 16
)

var (
	errWriterClosed = errors.New("connection closed")
	errBufferFull   = errors.New("send buffer full")
)

// ClientWriter is the WebSocket-backed Transport. A single goroutine drains
// the send channel, so messages reach the client in the order they were
// accepted. It also owns ping/pong keepalive and the idle timeout.
type ClientWriter struct {
	connection    *websocket.Conn
	clock         clockwork.Clock
	writeTimeout  time.Duration
	sendChannel   chan []byte
	doneChannel   chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
	lastActivity  time.Time
	activityMutex sync.Mutex
	warningSent   bool
}

// NewClientWriter wraps an upgraded connection and starts its write loop.
// A writeTimeout of zero picks the default.
func NewClientWriter(connection *websocket.Conn, clock clockwork.Clock, writeTimeout time.Duration) *ClientWriter {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	now := clock.Now()
	cw := &ClientWriter{
		connection:   connection,
		clock:        clock,
		writeTimeout: writeTimeout,
		sendChannel:  make(chan []byte, messageBufferSize),
		doneChannel:  make(chan struct{}),
		lastActivity: now,
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

// Send enqueues a message for delivery. It fails fast when the connection is
// closed or the client is too slow to drain its buffer; it never blocks on
// the network.
func (cw *ClientWriter) Send(message []byte) error {
	select {
	case <-cw.doneChannel:
		return errWriterClosed
	default:
	}

	select {
	case cw.sendChannel <- message:
		return nil
	case <-cw.doneChannel:
		return errWriterClosed
	default:
		return errBufferFull
	}
}

// Close sends a close frame with the given reason and tears the connection
// down. Safe to call multiple times and from multiple goroutines.
func (cw *ClientWriter) Close(reason string) {
	cw.stopOnce.Do(func() {
		// Signal the run goroutine to exit first
		close(cw.doneChannel)

		// Wait for run goroutine to exit before writing close frame
		// This prevents concurrent writes to the WebSocket connection
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)

		_ = cw.connection.Close()
	})
}

func (cw *ClientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg, ok := <-cw.sendChannel:
			if !ok {
				return
			}
			start := cw.clock.Now()
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				// Broken connection; the read pump sees the same failure
				// and unregisters us.
				return
			}
			metrics.WebSocketMessageSendDuration.Observe(cw.clock.Since(start).Seconds())
		case <-ticker.Chan():
			if cw.checkIdleTimeout() {
				_ = cw.connection.Close()
				return
			}

			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

func (cw *ClientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		cw.recordActivity()
		return nil
	})
}

func (cw *ClientWriter) updateWriteDeadline() {
	deadline := cw.clock.Now().Add(cw.writeTimeout)
	_ = cw.connection.SetWriteDeadline(deadline)
}

func (cw *ClientWriter) updateReadDeadline() {
	deadline := cw.clock.Now().Add(pongDeadline)
	_ = cw.connection.SetReadDeadline(deadline)
}

// recordActivity updates the last activity timestamp.
func (cw *ClientWriter) recordActivity() {
	cw.activityMutex.Lock()
	defer cw.activityMutex.Unlock()
	cw.lastActivity = cw.clock.Now()
	cw.warningSent = false
}

// checkIdleTimeout checks if the connection is idle and sends a warning or disconnects.
// Returns true if the connection should be terminated.
func (cw *ClientWriter) checkIdleTimeout() bool {
	cw.activityMutex.Lock()
	idleDuration := cw.clock.Since(cw.lastActivity)
	warningSent := cw.warningSent
	cw.activityMutex.Unlock()

	if idleDuration >= idleTimeout {
		metrics.WebSocketIdleDisconnects.Inc()
		return true
	}

	if !warningSent && idleDuration >= idleWarningTime {
		warning := []byte(`{"warning":"Connection idle. Will disconnect if no activity within 1 minute."}`)
		cw.updateWriteDeadline()
		if err := cw.connection.WriteMessage(websocket.TextMessage, warning); err == nil {
			cw.activityMutex.Lock()
			cw.warningSent = true
			cw.activityMutex.Unlock()
		}
	}

	return false
}
