package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/broadcast"
	"github.com/paul-reitz/relate.io/internal/domain"
)

func dialWebSocket(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := strings.Replace(server.URL, "http://", "ws://", 1) + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForCount(t *testing.T, registry *broadcast.Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if registry.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("registry never reached %d connections", want)
}

func TestHandleWebSocket_BadAdvisorID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	server := httptest.NewServer(srv.echo)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws/not-a-number")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleWebSocket_DeliversPublishedEvents(t *testing.T) {
	registry := broadcast.NewRegistry(16)
	srv := newTestServer(t, &mockAppService{}, withRegistry(registry))
	server := httptest.NewServer(srv.echo)
	defer server.Close()

	conn := dialWebSocket(t, server, "/ws/1")
	waitForCount(t, registry, 1)

	router := broadcast.NewRouter(registry, srv.clock)
	router.Publish(context.Background(), domain.NewFeedbackEvent{
		AdvisorID:  1,
		FeedbackID: 5,
		ClientID:   42,
		Sentiment:  "negative",
		Urgency:    4,
		Topics:     []string{"fees"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "new_feedback", msg["type"])
	assert.Equal(t, float64(42), msg["client_id"])
}

func TestHandleWebSocket_OtherAdvisorSeesNothing(t *testing.T) {
	registry := broadcast.NewRegistry(16)
	srv := newTestServer(t, &mockAppService{}, withRegistry(registry))
	server := httptest.NewServer(srv.echo)
	defer server.Close()

	conn := dialWebSocket(t, server, "/ws/2")
	waitForCount(t, registry, 1)

	router := broadcast.NewRouter(registry, srv.clock)
	router.Publish(context.Background(), domain.ClientCreatedEvent{AdvisorID: 1, ClientID: 42, Name: "Pieter"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHandleWebSocket_RegistryFullClosesConnection(t *testing.T) {
	registry := broadcast.NewRegistry(1)
	srv := newTestServer(t, &mockAppService{}, withRegistry(registry))
	server := httptest.NewServer(srv.echo)
	defer server.Close()

	first := dialWebSocket(t, server, "/ws/1")
	waitForCount(t, registry, 1)
	defer func() { _ = first.Close() }()

	second := dialWebSocket(t, server, "/ws/1")
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Contains(t, closeErr.Text, "capacity")
	assert.Equal(t, 1, registry.Count())
}

func TestHandleWebSocket_DisconnectUnregisters(t *testing.T) {
	registry := broadcast.NewRegistry(16)
	srv := newTestServer(t, &mockAppService{}, withRegistry(registry))
	server := httptest.NewServer(srv.echo)
	defer server.Close()

	conn := dialWebSocket(t, server, "/ws/1")
	waitForCount(t, registry, 1)

	require.NoError(t, conn.Close())
	waitForCount(t, registry, 0)
}
