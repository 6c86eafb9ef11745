// Package channel implements the push channel: a single long-lived
// websocket connection with bounded reconnection and a typed
// subscription registry.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	apperrors "github.com/toniosim/pbbg-client/pkg/errors"
	"github.com/toniosim/pbbg-client/pkg/game/types"
	"github.com/toniosim/pbbg-client/pkg/log"
	"github.com/toniosim/pbbg-client/pkg/notify"
)

const (
	defaultDialTimeout   = 20 * time.Second
	defaultMaxRetries    = 5
	defaultRetryDelay    = 1 * time.Second
	defaultRetryDelayMax = 5 * time.Second
)

// Handler receives the raw payload of a subscribed event. Handlers for
// the same event fire in registration order, on the read loop goroutine.
type Handler func(data json.RawMessage)

// frame is the wire format of a push-channel message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Client is a push-channel client. It does not connect on construction;
// Connect is an explicit operation gated by successful authentication.
type Client struct {
	url           string
	dialTimeout   time.Duration
	maxRetries    int
	retryDelay    time.Duration
	retryDelayMax time.Duration
	jar           http.CookieJar
	notifier      notify.Notifier

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	nextSubID uint64
	subs      map[string][]subscriber

	writeMu sync.Mutex
}

// NewClientOptions are the options for creating a new Client.
type NewClientOptions struct {
	// URL is the websocket endpoint, e.g. "ws://localhost:5000/ws".
	URL string
	// DialTimeout bounds the websocket handshake. Defaults to 20s.
	DialTimeout time.Duration
	// MaxRetries bounds the reconnection loop. Defaults to 5.
	MaxRetries int
	// RetryDelay is the initial reconnection delay, doubling per attempt
	// up to RetryDelayMax. Defaults to 1s and 5s.
	RetryDelay    time.Duration
	RetryDelayMax time.Duration
	// Jar presents the session cookie during the handshake.
	Jar http.CookieJar
	// Notifier surfaces transient connection warnings and errors.
	Notifier notify.Notifier
}

// NewClient creates a new Client.
func NewClient(opts NewClientOptions) *Client {
	dialTimeout := opts.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = defaultDialTimeout
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = defaultRetryDelay
	}
	retryDelayMax := opts.RetryDelayMax
	if retryDelayMax == 0 {
		retryDelayMax = defaultRetryDelayMax
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Client{
		url:           opts.URL,
		dialTimeout:   dialTimeout,
		maxRetries:    maxRetries,
		retryDelay:    retryDelay,
		retryDelayMax: retryDelayMax,
		jar:           opts.Jar,
		notifier:      notifier,
		subs:          make(map[string][]subscriber),
	}
}

// Connect establishes the connection and starts the read loop. It is a
// no-op when already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.notifier.Negative("Failed to connect to the game server")
		return apperrors.Transport("failed to connect", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	log.Info("Push channel connected to %s", c.url)
	c.dispatch(types.EventConnect, nil)

	go c.readLoop(conn)

	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.dialTimeout,
		Jar:              c.jar,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %v", c.url, err)
	}
	return conn, nil
}

// Disconnect closes the connection. The client stays disconnected until
// an explicit Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.closed = true
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	conn.Close()

	c.dispatch(types.EventDisconnect, nil)
}

// IsConnected reports whether the connection is currently established.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Publish sends an event with a JSON payload.
func (c *Client) Publish(event string, payload interface{}) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return apperrors.Transport("push channel is not connected", nil)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %v", event, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(frame{Event: event, Data: data}); err != nil {
		return apperrors.Transport("failed to publish "+event, err)
	}
	return nil
}

// Subscribe registers a handler for an event and returns its
// cancellation func. Handlers fire in registration order.
func (c *Client) Subscribe(event string, handler Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.subs[event] = append(c.subs[event], subscriber{id: id, handler: handler})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subs[event]
		for i := range subs {
			if subs[i].id == id {
				c.subs[event] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) dispatch(event string, data json.RawMessage) {
	c.mu.Lock()
	subs := append([]subscriber(nil), c.subs[event]...)
	c.mu.Unlock()

	for _, s := range subs {
		s.handler(data)
	}
}

// readLoop reads frames until the connection fails, then hands off to
// the bounded reconnection loop.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			stale := c.conn != conn
			if !stale {
				c.conn = nil
				c.connected = false
			}
			c.mu.Unlock()

			if closed || stale {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("Push channel read error: %v", err)
			}
			c.dispatch(types.EventDisconnect, nil)
			c.reconnect()
			return
		}
		c.handleFrame(message)
	}
}

func (c *Client) handleFrame(message []byte) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		log.Warn("Dropping malformed push frame: %v", err)
		return
	}

	// Payloads are validated against the known event set at the channel
	// boundary; unknown events and malformed payloads are reported, not
	// silently accepted.
	if _, err := types.DecodeInbound(f.Event, f.Data); err != nil {
		log.Warn("Dropping push event: %v", err)
		return
	}

	c.dispatch(f.Event, f.Data)
}

// reconnect retries the connection a bounded number of times with
// exponential backoff. After the attempts are exhausted the client stays
// disconnected until an explicit Connect.
func (c *Client) reconnect() {
	c.notifier.Warning("Connection issue detected. Trying to reconnect...")

	delay := c.retryDelay
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		time.Sleep(delay)
		delay *= 2
		if delay > c.retryDelayMax {
			delay = c.retryDelayMax
		}

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.dialTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			log.Warn("Reconnect attempt %d/%d failed: %v", attempt, c.maxRetries, err)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.connected = true
		c.mu.Unlock()

		log.Info("Push channel reconnected after %d attempt(s)", attempt)
		c.dispatch(types.EventConnect, nil)
		go c.readLoop(conn)
		return
	}

	c.notifier.Negative("Lost connection to the game server")
	c.dispatch(types.EventConnectError, nil)
}
