package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/toniosim/pbbg-client/pkg/errors"
	"github.com/toniosim/pbbg-client/pkg/game/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer is a websocket test server that records connections and the
// frames clients publish.
type wsServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	conns    []*websocket.Conn
	refuse   bool
	received chan frame
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{received: make(chan frame, 16)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		refuse := s.refuse
		s.mu.Unlock()
		if refuse {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			s.received <- f
		}
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *wsServer) setRefuse(refuse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuse = refuse
}

func (s *wsServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *wsServer) lastConn() *websocket.Conn {
	// The server registers a connection just after the handshake, so a
	// freshly connected client may race the registration.
	deadline := time.Now().Add(time.Second)
	for {
		s.mu.Lock()
		n := len(s.conns)
		s.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[len(s.conns)-1]
}

func (s *wsServer) send(t *testing.T, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, s.lastConn().WriteJSON(frame{Event: event, Data: data}))
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	positive []string
	negative []string
	warning  []string
	info     []string
}

func (n *recordingNotifier) Positive(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.positive = append(n.positive, message)
}

func (n *recordingNotifier) Negative(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.negative = append(n.negative, message)
}

func (n *recordingNotifier) Warning(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warning = append(n.warning, message)
}

func (n *recordingNotifier) Info(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.info = append(n.info, message)
}

func (n *recordingNotifier) warnings() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.warning...)
}

func (n *recordingNotifier) negatives() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.negative...)
}

func newConnectedClient(t *testing.T, s *wsServer) *Client {
	t.Helper()
	client := NewClient(NewClientOptions{
		URL:        s.url(),
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	})
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(client.Disconnect)
	return client
}

func TestClientConnectAndPublish(t *testing.T) {
	server := newWSServer(t)
	client := newConnectedClient(t, server)

	assert.True(t, client.IsConnected())

	require.NoError(t, client.Publish(types.EventChat, types.ChatRequest{
		Message: "hello",
		Channel: types.ChatChannelLocation,
	}))

	select {
	case f := <-server.received:
		assert.Equal(t, types.EventChat, f.Event)
		var chat types.ChatRequest
		require.NoError(t, json.Unmarshal(f.Data, &chat))
		assert.Equal(t, "hello", chat.Message)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published frame")
	}
}

func TestClientPublishWhenDisconnected(t *testing.T) {
	client := NewClient(NewClientOptions{URL: "ws://localhost:1/ws"})

	err := client.Publish(types.EventChat, types.ChatRequest{Message: "hello"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTransport))
}

func TestClientSubscribeDeliveryOrder(t *testing.T) {
	server := newWSServer(t)
	client := newConnectedClient(t, server)

	var mu sync.Mutex
	var order []string
	client.Subscribe(types.EventMessage, func(json.RawMessage) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	client.Subscribe(types.EventMessage, func(json.RawMessage) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	})

	server.send(t, types.EventMessage, types.ServerMessage{Text: "hi"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestClientSubscriptionCancel(t *testing.T) {
	server := newWSServer(t)
	client := newConnectedClient(t, server)

	var mu sync.Mutex
	var got []string
	cancel := client.Subscribe(types.EventMessage, func(data json.RawMessage) {
		var msg types.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		mu.Lock()
		got = append(got, msg.Text)
		mu.Unlock()
	})

	server.send(t, types.EventMessage, types.ServerMessage{Text: "before"})
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	server.send(t, types.EventMessage, types.ServerMessage{Text: "after"})
	server.send(t, types.EventConnectError, nil)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"before"}, got)
}

func TestClientDropsUnknownAndMalformedEvents(t *testing.T) {
	server := newWSServer(t)
	client := newConnectedClient(t, server)

	var mu sync.Mutex
	var got []string
	client.Subscribe(types.EventMessage, func(data json.RawMessage) {
		var msg types.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		mu.Lock()
		got = append(got, msg.Text)
		mu.Unlock()
	})
	client.Subscribe("warp_update", func(json.RawMessage) {
		t.Error("unknown event must not be dispatched")
	})

	// Unknown event, malformed payload, then a valid frame.
	server.send(t, "warp_update", map[string]string{"x": "1"})
	require.NoError(t, server.lastConn().WriteJSON(frame{
		Event: types.EventCharacterUpdate,
		Data:  json.RawMessage(`"not an object"`),
	}))
	server.send(t, types.EventMessage, types.ServerMessage{Text: "valid"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "valid"
	}, time.Second, 10*time.Millisecond)
}

func TestClientReconnects(t *testing.T) {
	server := newWSServer(t)
	client := newConnectedClient(t, server)

	var mu sync.Mutex
	connects, disconnects := 0, 0
	client.Subscribe(types.EventConnect, func(json.RawMessage) {
		mu.Lock()
		connects++
		mu.Unlock()
	})
	client.Subscribe(types.EventDisconnect, func(json.RawMessage) {
		mu.Lock()
		disconnects++
		mu.Unlock()
	})

	// Server-side close triggers the bounded reconnection loop.
	server.lastConn().Close()

	assert.Eventually(t, func() bool {
		return server.connCount() == 2 && client.IsConnected()
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, disconnects)
}

func TestClientReconnectExhaustion(t *testing.T) {
	server := newWSServer(t)
	notifier := &recordingNotifier{}
	client := NewClient(NewClientOptions{
		URL:        server.url(),
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
		Notifier:   notifier,
	})
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(client.Disconnect)

	exhausted := make(chan struct{}, 1)
	client.Subscribe(types.EventConnectError, func(json.RawMessage) {
		exhausted <- struct{}{}
	})

	// Refuse new upgrades so every retry fails, then kill the connection.
	server.setRefuse(true)
	server.lastConn().Close()

	select {
	case <-exhausted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect_error event")
	}

	assert.False(t, client.IsConnected())
	assert.Equal(t, []string{"Connection issue detected. Trying to reconnect..."}, notifier.warnings())
	assert.Equal(t, []string{"Lost connection to the game server"}, notifier.negatives())

	// The client stays down after exhaustion, even once the server is
	// reachable again, until an explicit connect.
	server.setRefuse(false)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, client.IsConnected())

	require.NoError(t, client.Connect(context.Background()))
	assert.True(t, client.IsConnected())
	assert.Equal(t, 2, server.connCount())
}

func TestClientDisconnectIsFinal(t *testing.T) {
	server := newWSServer(t)
	client := newConnectedClient(t, server)

	disconnected := make(chan struct{}, 1)
	client.Subscribe(types.EventDisconnect, func(json.RawMessage) {
		disconnected <- struct{}{}
	})

	client.Disconnect()

	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for disconnect event")
	}
	assert.False(t, client.IsConnected())

	// An explicit disconnect must not trigger reconnection.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, server.connCount())

	// An explicit connect re-establishes the channel.
	require.NoError(t, client.Connect(context.Background()))
	assert.True(t, client.IsConnected())
	assert.Equal(t, 2, server.connCount())
}
