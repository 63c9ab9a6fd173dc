package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
)

// echoSession replies to every message with the message itself. It rejects
// {"fail":true} and breaks on {"crash":true}.
type echoSession struct {
	client *Client
	closed chan struct{}
}

func (s *echoSession) HandleMessage(_ context.Context, msg json.RawMessage) error {
	var cmd struct {
		Fail  bool `json:"fail"`
		Crash bool `json:"crash"`
	}
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return err
	}
	if cmd.Fail {
		return errors.NewValidationError(errors.ErrCodeUnknownCommand, "unknown command")
	}
	if cmd.Crash {
		return errors.NewInternalError(errors.ErrCodeInternal, "session state lost", nil)
	}
	s.client.Send(msg)
	return nil
}

func (s *echoSession) Close() { close(s.closed) }

type harness struct {
	manager  *WebSocketManager
	server   *httptest.Server
	mu       sync.Mutex
	sessions []*echoSession
}

func newHarness(t *testing.T, limits Limits) *harness {
	t.Helper()
	h := &harness{}
	h.manager = NewWebSocketManager(
		NewAllowedOrigins(nil),
		func(_ context.Context, client *Client) (Session, error) {
			s := &echoSession{client: client, closed: make(chan struct{})}
			h.mu.Lock()
			h.sessions = append(h.sessions, s)
			h.mu.Unlock()
			return s, nil
		},
		limits,
		logging.NewDiscardLogger(),
	)
	h.server = httptest.NewServer(http.HandlerFunc(h.manager.HandleWebSocket))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.manager.Shutdown(ctx)
		h.server.Close()
	})
	return h
}

func (h *harness) dial(t *testing.T, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	return websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
}

func (h *harness) connect(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := h.dial(t, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Read(ctx, conn, v))
}

func writeJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, v))
}

func TestNewWebSocketManagerRequiresOriginValidator(t *testing.T) {
	assert.Panics(t, func() {
		NewWebSocketManager(nil, nil, Limits{}, nil)
	})
}

func TestSessionRoundTrip(t *testing.T) {
	h := newHarness(t, DefaultLimits())
	conn := h.connect(t)

	writeJSON(t, conn, map[string]interface{}{"type": "ping", "n": 1})
	var reply map[string]interface{}
	readJSON(t, conn, &reply)
	assert.Equal(t, "ping", reply["type"])
	assert.Equal(t, float64(1), reply["n"])
}

func TestSessionErrorsAreReported(t *testing.T) {
	h := newHarness(t, DefaultLimits())
	conn := h.connect(t)

	writeJSON(t, conn, map[string]interface{}{"fail": true})
	var reply ErrorMessage
	readJSON(t, conn, &reply)
	assert.Equal(t, MessageTypeError, reply.Type)
	assert.Equal(t, errors.ErrCodeUnknownCommand, reply.Code)
	assert.Contains(t, reply.Error, "unknown command")

	// The connection stays usable.
	writeJSON(t, conn, map[string]interface{}{"type": "after"})
	var next map[string]interface{}
	readJSON(t, conn, &next)
	assert.Equal(t, "after", next["type"])
}

func TestBroadcastReload(t *testing.T) {
	h := newHarness(t, DefaultLimits())
	first := h.connect(t)
	second := h.connect(t)

	require.Eventually(t, func() bool {
		return h.manager.GetConnectedClients() == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, h.manager.BroadcastReload("/site/index.html"))
	for _, conn := range []*websocket.Conn{first, second} {
		var msg UpdateMessage
		readJSON(t, conn, &msg)
		assert.Equal(t, MessageTypeReload, msg.Type)
		assert.Equal(t, "/site/index.html", msg.Target)
		assert.False(t, msg.Timestamp.IsZero())
	}
}

func TestClientDisconnectClosesSession(t *testing.T) {
	h := newHarness(t, DefaultLimits())
	conn := h.connect(t)

	require.Eventually(t, func() bool {
		return h.manager.GetConnectedClients() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	require.Eventually(t, func() bool {
		return h.manager.GetConnectedClients() == 0
	}, 2*time.Second, 10*time.Millisecond)

	h.mu.Lock()
	session := h.sessions[0]
	h.mu.Unlock()
	select {
	case <-session.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not closed")
	}
	assert.Zero(t, h.manager.ips.count("127.0.0.1"))
}

func TestOriginRejected(t *testing.T) {
	h := newHarness(t, DefaultLimits())

	_, resp, err := h.dial(t, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := h.dial(t, http.Header{"Origin": []string{"http://localhost:8080"}})
	require.NoError(t, err)
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func TestConnectionLimitPerIP(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxConnectionsPerIP = 1
	h := newHarness(t, limits)

	h.connect(t)
	_, resp, err := h.dial(t, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMessageRateLimitClosesConnection(t *testing.T) {
	limits := DefaultLimits()
	limits.MessagesPerSecond = 0.001
	limits.Burst = 1
	h := newHarness(t, limits)
	conn := h.connect(t)

	writeJSON(t, conn, map[string]interface{}{"type": "one"})
	var reply map[string]interface{}
	readJSON(t, conn, &reply)

	writeJSON(t, conn, map[string]interface{}{"type": "two"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := wsjson.Read(ctx, conn, &reply)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestShutdown(t *testing.T) {
	h := newHarness(t, DefaultLimits())
	conn := h.connect(t)
	require.Eventually(t, func() bool {
		return h.manager.GetConnectedClients() == 1
	}, 2*time.Second, 10*time.Millisecond)

	readErr := make(chan error, 1)
	go func() {
		var msg map[string]interface{}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		readErr <- wsjson.Read(ctx, conn, &msg)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.manager.Shutdown(ctx))
	assert.True(t, h.manager.IsShutdown())
	assert.Zero(t, h.manager.GetConnectedClients())
	assert.False(t, h.manager.Broadcast(UpdateMessage{Type: MessageTypeReload}))
	assert.Error(t, <-readErr)

	_, resp, err := h.dial(t, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAllowedOrigins(t *testing.T) {
	testCases := []struct {
		name     string
		allowed  []string
		origin   string
		expected bool
	}{
		{"loopback by default", nil, "http://localhost:3000", true},
		{"ipv4 loopback", nil, "http://127.0.0.1:8080", true},
		{"ipv6 loopback", nil, "http://[::1]:8080", true},
		{"remote by default", nil, "https://example.com", false},
		{"listed", []string{"https://example.com"}, "https://example.com", true},
		{"case insensitive", []string{"https://Example.com"}, "HTTPS://EXAMPLE.COM", true},
		{"port must match", []string{"https://example.com"}, "https://example.com:8443", false},
		{"list replaces loopback", []string{"https://example.com"}, "http://localhost", false},
		{"non http scheme", nil, "file://localhost", false},
		{"garbage", nil, "::not a url", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NewAllowedOrigins(tc.allowed).IsAllowedOrigin(tc.origin))
		})
	}
}

func TestIPTracker(t *testing.T) {
	tracker := newIPTracker(2)
	assert.True(t, tracker.acquire("10.0.0.1"))
	assert.True(t, tracker.acquire("10.0.0.1"))
	assert.False(t, tracker.acquire("10.0.0.1"))
	assert.True(t, tracker.acquire("10.0.0.2"))

	tracker.release("10.0.0.1")
	assert.Equal(t, 1, tracker.count("10.0.0.1"))
	assert.True(t, tracker.acquire("10.0.0.1"))

	unlimited := newIPTracker(0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.acquire("10.0.0.1"), fmt.Sprintf("acquire %d", i))
	}
}

func TestIdleClientKeepsReceivingBroadcasts(t *testing.T) {
	h := newHarness(t, Limits{PingInterval: 50 * time.Millisecond, WriteTimeout: time.Second})
	conn := h.connect(t)

	// Pongs are only answered while the client reads.
	messages := make(chan UpdateMessage, 1)
	go func() {
		var msg UpdateMessage
		if err := wsjson.Read(context.Background(), conn, &msg); err == nil {
			messages <- msg
		}
	}()

	require.Eventually(t, func() bool { return h.manager.GetConnectedClients() == 1 },
		time.Second, 10*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	require.Equal(t, 1, h.manager.GetConnectedClients(), "idle clients stay connected")

	require.True(t, h.manager.BroadcastReload("page.html"))
	select {
	case msg := <-messages:
		assert.Equal(t, MessageTypeReload, msg.Type)
		assert.Equal(t, "page.html", msg.Target)
	case <-time.After(2 * time.Second):
		t.Fatal("reload not delivered to idle client")
	}
}

func TestUnrecoverableSessionErrorClosesConnection(t *testing.T) {
	h := newHarness(t, Limits{})
	conn := h.connect(t)

	writeJSON(t, conn, map[string]bool{"crash": true})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg json.RawMessage
	err := wsjson.Read(ctx, conn, &msg)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusInternalError, websocket.CloseStatus(err))

	h.mu.Lock()
	session := h.sessions[0]
	h.mu.Unlock()
	select {
	case <-session.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("session not closed")
	}
}

func TestLastActivity(t *testing.T) {
	h := newHarness(t, Limits{})
	assert.True(t, h.manager.LastActivity().IsZero())

	conn := h.connect(t)
	require.Eventually(t, func() bool { return h.manager.GetConnectedClients() == 1 },
		time.Second, 10*time.Millisecond)
	connected := h.manager.LastActivity()
	require.False(t, connected.IsZero())

	time.Sleep(10 * time.Millisecond)
	writeJSON(t, conn, map[string]string{"hello": "world"})
	var echo map[string]string
	readJSON(t, conn, &echo)
	assert.True(t, h.manager.LastActivity().After(connected))
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "127.0.0.1", clientIP("127.0.0.1:5555"))
	assert.Equal(t, "::1", clientIP("[::1]:5555"))
	assert.Equal(t, "pipe", clientIP("pipe"))
}

func TestLimitsDefaults(t *testing.T) {
	limits := Limits{}.withDefaults()
	assert.Equal(t, DefaultLimits().SendBuffer, limits.SendBuffer)
	assert.Equal(t, DefaultLimits().PingInterval, limits.PingInterval)
	assert.Nil(t, limits.newRateLimiter())
	assert.NotNil(t, DefaultLimits().newRateLimiter())
}
