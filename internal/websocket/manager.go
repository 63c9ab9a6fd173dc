// Package websocket manages the preview server's browser connections: a hub
// goroutine owns registration and broadcast, and each client gets a read
// pump feeding its Session and a write pump draining its send queue.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
)

// WebSocketManager handles connection management and broadcasting.
//
// Invariants:
//   - clients map access is protected by clientsMutex
//   - ctx and cancel are never nil after construction
//   - a client's session only sees messages from that client's read pump
type WebSocketManager struct {
	clients      map[*Client]struct{}
	clientsMutex sync.RWMutex

	broadcast  chan interface{}
	register   chan *Client
	unregister chan *Client

	originValidator OriginValidator
	sessions        SessionFactory
	limits          Limits
	ips             *ipTracker
	logger          logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewWebSocketManager creates a manager and starts its hub goroutine. A nil
// session factory gives broadcast-only clients.
//
// Panics if originValidator is nil.
func NewWebSocketManager(
	originValidator OriginValidator,
	sessions SessionFactory,
	limits Limits,
	logger logging.Logger,
) *WebSocketManager {
	if originValidator == nil {
		panic("WebSocketManager: originValidator cannot be nil")
	}
	if sessions == nil {
		sessions = func(context.Context, *Client) (Session, error) { return noopSession{}, nil }
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	limits = limits.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	manager := &WebSocketManager{
		clients:         make(map[*Client]struct{}),
		broadcast:       make(chan interface{}, 256),
		register:        make(chan *Client, 32),
		unregister:      make(chan *Client, 32),
		originValidator: originValidator,
		sessions:        sessions,
		limits:          limits,
		ips:             newIPTracker(limits.MaxConnectionsPerIP),
		logger:          logger.WithComponent("websocket"),
		ctx:             ctx,
		cancel:          cancel,
	}

	go manager.runHub()
	return manager
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes.
func (wm *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if wm.IsShutdown() {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if origin != "" && !wm.originValidator.IsAllowedOrigin(origin) {
		err := errors.NewValidationError(errors.ErrCodeInvalidOrigin, "origin not allowed").
			WithContext("origin", origin)
		wm.logger.Warn(r.Context(), err, "WebSocket connection rejected")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	ip := clientIP(r.RemoteAddr)
	if !wm.ips.acquire(ip) {
		wm.logger.Warn(r.Context(), nil, "WebSocket connection limit reached", "ip", ip)
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins were validated above.
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		wm.ips.release(ip)
		wm.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "ip", ip)
		return
	}

	wm.wg.Add(1)
	client := &Client{
		id:           uuid.NewString(),
		ip:           ip,
		conn:         conn,
		send:         make(chan interface{}, wm.limits.SendBuffer),
		done:         make(chan struct{}),
		rateLimiter:  wm.limits.newRateLimiter(),
		lastActivity: time.Now(),
	}

	session, err := wm.sessions(wm.ctx, client)
	if err != nil {
		wm.ips.release(ip)
		wm.logger.Error(r.Context(), err, "WebSocket session failed to open", "client", client.id)
		_ = wsjson.Write(r.Context(), conn, errorMessage(err))
		client.close(websocket.StatusInternalError, "session failed")
		wm.wg.Done()
		return
	}

	select {
	case wm.register <- client:
	case <-wm.ctx.Done():
		session.Close()
		wm.ips.release(ip)
		client.close(websocket.StatusServiceRestart, "Server shutting down")
		wm.wg.Done()
		return
	}

	wm.logger.Info(r.Context(), "WebSocket client connected", "client", client.id, "ip", ip)

	// Pumps run on the manager's context; the request context ends when
	// this handler returns.
	go wm.handleClient(client, session)
}

func (wm *WebSocketManager) runHub() {
	for {
		select {
		case client := <-wm.register:
			wm.clientsMutex.Lock()
			wm.clients[client] = struct{}{}
			total := len(wm.clients)
			wm.clientsMutex.Unlock()
			wm.logger.Debug(wm.ctx, "WebSocket client registered", "clients", total)

		case client := <-wm.unregister:
			wm.removeClient(client)

		case message := <-wm.broadcast:
			wm.broadcastToClients(message)

		case <-wm.ctx.Done():
			return
		}
	}
}

func (wm *WebSocketManager) removeClient(client *Client) {
	wm.clientsMutex.Lock()
	_, exists := wm.clients[client]
	delete(wm.clients, client)
	total := len(wm.clients)
	wm.clientsMutex.Unlock()

	client.close(websocket.StatusNormalClosure, "")
	if exists {
		wm.logger.Info(wm.ctx, "WebSocket client disconnected", "client", client.id, "clients", total)
	}
}

func (wm *WebSocketManager) broadcastToClients(message interface{}) {
	wm.clientsMutex.RLock()
	clients := make([]*Client, 0, len(wm.clients))
	for client := range wm.clients {
		clients = append(clients, client)
	}
	wm.clientsMutex.RUnlock()

	for _, client := range clients {
		if !client.Send(message) {
			// Slow or closed clients are dropped.
			go func(c *Client) {
				select {
				case wm.unregister <- c:
				case <-wm.ctx.Done():
				}
			}(client)
		}
	}
}

func (wm *WebSocketManager) handleClient(client *Client, session Session) {
	defer wm.wg.Done()
	defer func() {
		session.Close()
		wm.ips.release(client.ip)
		select {
		case wm.unregister <- client:
		case <-wm.ctx.Done():
			client.close(websocket.StatusGoingAway, "Server shutdown")
		}
	}()

	go wm.writeToClient(client)
	wm.readFromClient(client, session)
}

func (wm *WebSocketManager) readFromClient(client *Client, session Session) {
	for {
		var message json.RawMessage
		if err := wsjson.Read(wm.ctx, client.conn, &message); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				wm.logger.Debug(wm.ctx, "WebSocket client closed", "client", client.id)
			default:
				select {
				case <-client.done:
				default:
					wm.logger.Debug(wm.ctx, "WebSocket read ended", "client", client.id, "error", err.Error())
				}
			}
			return
		}

		client.touch()

		if client.rateLimiter != nil && !client.rateLimiter.Allow() {
			wm.logger.Warn(wm.ctx, nil, "WebSocket message rate limit exceeded", "client", client.id)
			client.close(websocket.StatusPolicyViolation, "rate limit exceeded")
			return
		}

		if err := session.HandleMessage(wm.ctx, message); err != nil {
			if !errors.IsRecoverable(err) {
				wm.logger.Error(wm.ctx, err, "WebSocket session failed", "client", client.id)
				client.close(websocket.StatusInternalError, "session failed")
				return
			}
			wm.logger.Warn(wm.ctx, err, "WebSocket message rejected", "client", client.id)
			client.Send(errorMessage(err))
		}
	}
}

func (wm *WebSocketManager) writeToClient(client *Client) {
	ticker := time.NewTicker(wm.limits.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-client.send:
			ctx, cancel := context.WithTimeout(wm.ctx, wm.limits.WriteTimeout)
			err := wsjson.Write(ctx, client.conn, message)
			cancel()
			if err != nil {
				wm.logger.Debug(wm.ctx, "WebSocket write failed", "client", client.id, "error", err.Error())
				client.close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(wm.ctx, wm.limits.WriteTimeout)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				client.close(websocket.StatusGoingAway, "ping failed")
				return
			}

		case <-client.done:
			return
		case <-wm.ctx.Done():
			return
		}
	}
}

func errorMessage(err error) ErrorMessage {
	return ErrorMessage{Type: MessageTypeError, Error: err.Error(), Code: errors.GetCode(err)}
}

// Broadcast queues message for every connected client. It reports false
// when the manager is shut down or the broadcast queue is full.
func (wm *WebSocketManager) Broadcast(message interface{}) bool {
	select {
	case <-wm.ctx.Done():
		return false
	default:
	}
	select {
	case wm.broadcast <- message:
		return true
	default:
		wm.logger.Warn(wm.ctx, nil, "Broadcast channel full, dropping message")
		return false
	}
}

// BroadcastReload tells every client that target changed.
func (wm *WebSocketManager) BroadcastReload(target string) bool {
	return wm.Broadcast(UpdateMessage{Type: MessageTypeReload, Target: target, Timestamp: time.Now()})
}

// GetConnectedClients returns the number of registered clients.
func (wm *WebSocketManager) GetConnectedClients() int {
	wm.clientsMutex.RLock()
	defer wm.clientsMutex.RUnlock()
	return len(wm.clients)
}

// LastActivity returns the latest time any connected client sent a
// message or connected, or the zero time when none is connected.
func (wm *WebSocketManager) LastActivity() time.Time {
	wm.clientsMutex.RLock()
	defer wm.clientsMutex.RUnlock()

	var latest time.Time
	for client := range wm.clients {
		if t := client.LastActivity(); t.After(latest) {
			latest = t
		}
	}
	return latest
}

// Shutdown closes every connection and stops the hub. It waits for client
// goroutines until ctx is done.
func (wm *WebSocketManager) Shutdown(ctx context.Context) error {
	wm.shutdownOnce.Do(func() {
		wm.cancel()

		wm.clientsMutex.Lock()
		clients := wm.clients
		wm.clients = make(map[*Client]struct{})
		wm.clientsMutex.Unlock()

		// Close handshakes wait on the peer, so they run in parallel.
		for client := range clients {
			go client.close(websocket.StatusGoingAway, "Server shutdown")
		}

		wm.logger.Info(ctx, "WebSocket manager shut down")
	})

	done := make(chan struct{})
	go func() {
		wm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShutdown reports whether Shutdown has been called.
func (wm *WebSocketManager) IsShutdown() bool {
	return wm.ctx.Err() != nil
}
