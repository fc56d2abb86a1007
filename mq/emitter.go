// Package mq fans entity change events out to websocket subscribers.
package mq

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MethodCreate = "create"
	MethodUpdate = "update"
	MethodDelete = "delete"

	writeWait  = 10 * time.Second
	sendBuffer = 16
)

type Event struct {
	Entity string `json:"entity"`
	Method string `json:"method"`
	ID     string `json:"id"`
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub is safe for concurrent use. A nil *Hub drops every event.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Emit queues the event for every subscriber. Slow subscribers miss events
// rather than stall the caller.
func (h *Hub) Emit(entity, method string, id primitive.ObjectID) {
	if h == nil {
		return
	}
	ev := Event{Entity: entity, Method: method, ID: id.Hex()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slog.Warn("event dropped for slow subscriber", "entity", entity, "method", method)
		}
	}
}

func (h *Hub) Count() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops every subscriber connection.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

// Handler upgrades the request and streams events until the peer leaves.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan Event, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("ws subscriber connected", "remote", r.RemoteAddr)

	go c.writeLoop()

	// Inbound messages are ignored; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	slog.Debug("ws subscriber disconnected", "remote", r.RemoteAddr)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
