// collector.go — Reference collector client: websocket + circuit breaker.
// Dispatch failures open the breaker so a dead collector costs one
// cheap rejection per batch instead of a dial timeout. Reconnection is
// lazy with exponential backoff; dropped batches are logged, never
// retried (snapshots are deltas — the next batch supersedes them for
// liveness purposes, and cumulative fields self-heal).
package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/render-lens/render-lens/internal/emit"
)

const (
	dialTimeout    = 5 * time.Second
	writeTimeout   = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// CollectorClient maintains a persistent websocket connection to the
// collector and writes one JSON message per batch.
type CollectorClient struct {
	url string
	log *zap.Logger

	breaker *gobreaker.CircuitBreaker

	mu       sync.Mutex
	conn     *websocket.Conn
	backoff  time.Duration
	nextDial time.Time
	closed   bool
}

// NewCollectorClient creates a client for the given ws:// or wss:// URL.
// No connection is made until the first dispatch.
func NewCollectorClient(url string, log *zap.Logger) *CollectorClient {
	if log == nil {
		log = zap.NewNop()
	}
	c := &CollectorClient{
		url:     url,
		log:     log,
		backoff: initialBackoff,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "collector-dispatch",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("collector breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// Dispatch sends one batch. Failures are contained: the batch is
// dropped, the breaker records the failure, and the emitter continues.
func (c *CollectorClient) Dispatch(msg *emit.SnapshotMessage) {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(msg)
	})
	if err != nil {
		c.log.Debug("snapshot batch dropped",
			zap.Int("profiles", len(msg.Profiles)),
			zap.Error(err))
	}
}

// send writes the batch, dialing first if needed.
func (c *CollectorClient) send(msg *emit.SnapshotMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("collector client closed")
	}
	if err := c.ensureConnLocked(); err != nil {
		return err
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.dropConnLocked()
		return fmt.Errorf("write snapshot batch: %w", err)
	}
	return nil
}

// ensureConnLocked dials if disconnected, respecting the backoff gate.
// Caller must hold c.mu.
func (c *CollectorClient) ensureConnLocked() error {
	if c.conn != nil {
		return nil
	}
	now := time.Now()
	if now.Before(c.nextDial) {
		return fmt.Errorf("collector reconnect backed off until %s", c.nextDial.Format(time.RFC3339))
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		c.nextDial = now.Add(c.backoff)
		c.backoff = min(c.backoff*2, maxBackoff)
		return fmt.Errorf("dial collector %s: %w", c.url, err)
	}

	c.conn = conn
	c.backoff = initialBackoff
	c.nextDial = time.Time{}
	c.log.Info("collector connected", zap.String("url", c.url))
	return nil
}

// dropConnLocked closes and forgets the connection after a write
// failure. Caller must hold c.mu.
func (c *CollectorClient) dropConnLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.nextDial = time.Now().Add(c.backoff)
	c.backoff = min(c.backoff*2, maxBackoff)
}

// Close shuts the connection down. Idempotent; later dispatches fail
// fast through the breaker.
func (c *CollectorClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		_ = c.conn.Close()
		c.conn = nil
	}
}
