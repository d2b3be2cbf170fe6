// Package websocket pushes development server events to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/redirector/internal/logging"
)

// Message types broadcast by the development server.
const (
	MessageRoutesUpdated = "routes-updated"
	MessageRoutesFailed  = "routes-failed"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
	readWait   = 60 * time.Second

	maxMessageSize = 512
)

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Routes    []string  `json:"routes,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected browser
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks websocket clients and fans out broadcasts.
//
// The hub goroutine owns registration and broadcasting; clients map access
// is additionally guarded by mu so Clients can be read from handlers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*Client

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	originPatterns []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewHub starts a hub. originPatterns are host patterns accepted in the
// Origin header (see websocket.AcceptOptions); the request's own host is
// always accepted.
func NewHub(originPatterns []string, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:        make(map[*websocket.Conn]*Client),
		broadcast:      make(chan []byte, 64),
		register:       make(chan *Client, 16),
		unregister:     make(chan *websocket.Conn, 16),
		originPatterns: originPatterns,
		logger:         logger.WithComponent("websocket"),
		ctx:            ctx,
		cancel:         cancel,
	}
	go h.run()
	return h
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		// Accept has already written the response
		h.logger.Debug(r.Context(), "websocket upgrade failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &Client{conn: conn, send: make(chan []byte, 16)}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	}

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug(h.ctx, "client connected", "clients", n)

		case conn := <-h.unregister:
			h.remove(conn)

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*websocket.Conn
			for conn, client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range slow {
				h.remove(conn)
			}

		case <-h.ctx.Done():
			h.mu.Lock()
			for conn, client := range h.clients {
				close(client.send)
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove must only be called from the hub goroutine.
func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Debug(h.ctx, "client disconnected", "clients", n)
	}
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(client *Client) {
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.ctx.Done():
		}
		_ = client.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		ctx, cancel := context.WithTimeout(h.ctx, readWait)
		_, _, err := client.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Broadcast sends message to every connected client. It never blocks;
// messages are dropped when the hub is saturated or shut down.
func (h *Hub) Broadcast(message UpdateMessage) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error(h.ctx, err, "failed to marshal broadcast message")
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Debug(h.ctx, "broadcast channel full, dropping message", "type", message.Type)
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops the hub and closes every connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(h.clients))
		for conn := range h.clients {
			conns = append(conns, conn)
		}
		h.mu.RUnlock()

		h.cancel()
		for _, conn := range conns {
			_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
		}
	})
	return nil
}
