package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
	"github.com/paul-reitz/relate.io/internal/broadcast"
	apperrors "github.com/paul-reitz/relate.io/internal/platform/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the request and registers the connection under the
// advisor. The server pushes change events; the read pump only consumes
// control frames and detects disconnects.
func (s *Server) handleWebSocket(c echo.Context) error {
	ctx := c.Request().Context()

	advisorID, err := strconv.ParseInt(c.Param("advisor_id"), 10, 64)
	if err != nil || advisorID <= 0 {
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		return apperrors.ValidationError("advisor_id must be a positive integer").
			WithContext("advisor_id", c.Param("advisor_id"))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "WebSocket upgrade failed", "advisor_id", advisorID, "error", err)
		// Upgrade already wrote its own error response.
		return nil
	}

	writer := broadcast.NewClientWriter(conn, s.clock, s.config.WebSocketWriteTimeout)

	connID, err := s.registry.Register(advisorID, writer)
	if err != nil {
		metrics.WebSocketConnectionsTotal.WithLabelValues("rejected").Inc()
		metrics.WebSocketConnectionsRejected.WithLabelValues("global_limit").Inc()
		slog.WarnContext(ctx, "WebSocket connection rejected, registry full", "advisor_id", advisorID)
		writer.Close("server at capacity, try again later")
		return nil
	}

	metrics.WebSocketConnectionsTotal.WithLabelValues("success").Inc()
	slog.InfoContext(ctx, "WebSocket connected",
		"advisor_id", advisorID, "connection_id", connID, "connections", s.registry.Count())

	start := s.clock.Now()
	s.readPump(conn)

	s.registry.Unregister(connID)
	metrics.WebSocketConnectionDuration.Observe(s.clock.Since(start).Seconds())
	slog.InfoContext(ctx, "WebSocket disconnected",
		"advisor_id", advisorID, "connection_id", connID, "connections", s.registry.Count())
	return nil
}

// readPump blocks until the connection drops. Incoming data frames are
// discarded; pong handling lives on the writer.
func (s *Server) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
