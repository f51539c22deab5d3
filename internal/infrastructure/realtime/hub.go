// Package realtime pushes shopping list changes to connected clients over
// WebSocket, so a list edited on one device updates on the others.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// client is one subscribed connection
type client struct {
	listID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

type delivery struct {
	listID  uuid.UUID
	payload []byte
}

// Hub fans list events out to the connections watching each list
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan delivery

	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*client]struct{}
}

// NewHub creates a hub accepting upgrades from allowedOrigins. An empty
// list accepts same-host requests only.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		logger:     logger.Named("realtime"),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan delivery, 64),
		rooms:      make(map[uuid.UUID]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Run dispatches registrations and broadcasts until ctx is done, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.listID]
			if !ok {
				room = make(map[*client]struct{})
				h.rooms[c.listID] = room
			}
			room[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.remove(c)
		case d := <-h.broadcast:
			h.mu.RLock()
			var slow []*client
			for c := range h.rooms[d.listID] {
				select {
				case c.send <- d.payload:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.logger.Warn("Dropping slow subscriber", zap.String("list_id", c.listID.String()))
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.listID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.listID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}

// Subscribers returns how many connections watch listID
func (h *Hub) Subscribers(listID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[listID])
}

// Broadcast implements outbound.ListBroadcaster. It never blocks the caller;
// events are dropped when the hub is saturated.
func (h *Hub) Broadcast(listID uuid.UUID, event outbound.ListEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode list event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- delivery{listID: listID, payload: payload}:
	default:
		h.logger.Warn("Realtime hub saturated, dropping event",
			zap.String("list_id", listID.String()),
			zap.String("type", event.Type),
		)
	}
}

// Serve upgrades the request and streams listID events to it until the
// client disconnects. The caller has already authorized the request.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, listID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{listID: listID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-r.Context().Done():
		conn.Close()
		return r.Context().Err()
	}
	h.logger.Debug("Subscriber connected", zap.String("list_id", listID.String()))

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// readPump discards client messages and detects disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-time.After(writeWait):
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Subscriber closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
