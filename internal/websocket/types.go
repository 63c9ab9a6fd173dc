package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Message types shared by every connection.
const (
	MessageTypeReload = "reload"
	MessageTypeError  = "error"
)

// Client is one websocket connection registered with the manager.
type Client struct {
	id           string
	ip           string
	conn         *websocket.Conn
	send         chan interface{}
	done         chan struct{}
	closeOnce    sync.Once
	rateLimiter  RateLimiter
	mutex        sync.Mutex
	lastActivity time.Time
}

// ID returns the identifier assigned when the client connected.
func (c *Client) ID() string {
	return c.id
}

// LastActivity returns the time of the last message read from the client.
func (c *Client) LastActivity() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lastActivity
}

func (c *Client) touch() {
	c.mutex.Lock()
	c.lastActivity = time.Now()
	c.mutex.Unlock()
}

// Send queues v for delivery as a JSON text message. It reports false when
// the client is closed or its send buffer is full.
func (c *Client) Send(v interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- v:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// close stops the client's pumps. It is safe to call more than once.
func (c *Client) close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close(code, reason)
	})
}

// UpdateMessage is broadcast to the browser when the previewed page changes.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorMessage reports a message the server could not handle.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Session handles the messages of a single client. HandleMessage is only
// ever called from the client's read goroutine, so a session may own state
// that is not safe for concurrent use.
type Session interface {
	HandleMessage(ctx context.Context, msg json.RawMessage) error
	Close()
}

// SessionFactory opens a session for a newly connected client.
type SessionFactory func(ctx context.Context, client *Client) (Session, error)

// RateLimiter limits the messages a single client may send.
type RateLimiter interface {
	Allow() bool
}

type noopSession struct{}

func (noopSession) HandleMessage(context.Context, json.RawMessage) error { return nil }

func (noopSession) Close() {}
