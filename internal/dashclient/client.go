package dashclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
	dialTimeout           = 10 * time.Second
)

// Client maintains the dashboard's connection to the change event stream.
// It reconnects with exponential backoff and drops the whole cache after
// every reconnect, since events sent during the gap are lost for good.
type Client struct {
	url         string
	store       Store
	invalidator *Invalidator
	dialer      *websocket.Dialer

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClient creates a stream client for the given WebSocket URL, typically
// ws://host/ws/<advisor_id>.
func NewClient(url string, store Store) *Client {
	return &Client{
		url:            url,
		store:          store,
		invalidator:    NewInvalidator(store),
		dialer:         &websocket.Dialer{HandshakeTimeout: dialTimeout},
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
}

// Run connects and consumes events until the context is canceled. It only
// returns the context's error; connection failures are retried forever.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			return err
		}

		// Anything cached before or during the gap may be stale.
		c.store.InvalidateAll()
		slog.Info("Dashboard stream connected", "url", c.url)

		c.consume(ctx, conn)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.initialBackoff
	expo.MaxInterval = c.maxBackoff

	return backoff.Retry(ctx, func() (*websocket.Conn, error) {
		conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if resp != nil {
				_ = resp.Body.Close()
			}
			return nil, fmt.Errorf("failed to dial event stream: %w", err)
		}
		return conn, nil
	},
		backoff.WithBackOff(expo),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Dashboard stream dial failed, retrying", "error", err, "next_attempt_in", next)
		}),
	)
}

// consume reads frames until the connection drops or the context ends.
func (c *Client) consume(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer func() { _ = conn.Close() }()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			slog.Info("Dashboard stream disconnected", "error", err)
			return
		}
		c.invalidator.HandleMessage(payload)
	}
}
