package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 64
)

var errHubStopped = errors.New("feed hub stopped")

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID uuid.UUID
	userID    uuid.UUID
}

// kick selects clients to disconnect. A zero id matches nothing.
type kick struct {
	sessionID uuid.UUID
	userID    uuid.UUID
}

func (k kick) matches(c *client) bool {
	return (k.sessionID != uuid.Nil && c.sessionID == k.sessionID) ||
		(k.userID != uuid.Nil && c.userID == k.userID)
}

// Hub fans feed payloads out to connected websocket clients. All mutation of
// the client set happens inside Run.
type Hub struct {
	upgrader     websocket.Upgrader
	clients      map[*client]bool
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *client
	unregister   chan *client
	kicks        chan kick
	done         chan struct{}
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		kicks:      make(chan kick),
		done:       make(chan struct{}),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Run serves register, unregister, kicks and broadcast until ctx is done,
// then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.clientsMutex.Lock()
			h.clients[c] = true
			h.clientsMutex.Unlock()
		case c := <-h.unregister:
			h.clientsMutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.clientsMutex.Unlock()
		case k := <-h.kicks:
			h.clientsMutex.Lock()
			for c := range h.clients {
				if k.matches(c) {
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.clientsMutex.Unlock()
		case message := <-h.broadcast:
			h.clientsMutex.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow client.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.clientsMutex.Unlock()
		case <-ctx.Done():
			h.clientsMutex.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.clientsMutex.Unlock()
			return
		}
	}
}

func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	return len(h.clients)
}

// Broadcast queues an already encoded payload for every client.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) error {
	select {
	case h.broadcast <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return errHubStopped
	}
}

// Publish makes the hub usable as a Feed sink when there is no broker.
func (h *Hub) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	return h.Broadcast(ctx, payload)
}

// Invalidate disconnects feed clients opened with a signed-out session.
func (h *Hub) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	return h.sendKick(ctx, kick{sessionID: sessionID})
}

// InvalidateUser disconnects every feed client of the user.
func (h *Hub) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	return h.sendKick(ctx, kick{userID: userID})
}

func (h *Hub) sendKick(ctx context.Context, k kick) error {
	select {
	case h.kicks <- k:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		// Every client is already closed.
		return nil
	}
}

// ServeWS upgrades the request and attaches the connection to the hub on
// behalf of the given auth session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("h.upgrader.Upgrade -> %w", err)
	}

	c := &client{
		conn:      conn,
		send:      make(chan []byte, clientSendSize),
		sessionID: sessionID,
		userID:    userID,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return errHubStopped
	}

	go c.writePump()
	go c.readPump(h)

	return nil
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the close; the feed is one-way.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("feed client closed", zap.Error(err))
			}
			return
		}
	}
}
