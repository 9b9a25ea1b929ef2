package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dishpatch/dishpatch/pkg/event"
	"github.com/dishpatch/dishpatch/server/internal/metrics"
	"github.com/dishpatch/dishpatch/server/internal/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// All origins are allowed; origin policy belongs to the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Options are the tunables for client connections. Changes via UpdateOptions
// apply to connections established afterwards.
type Options struct {
	// PingInterval is how often the server pings each connection.
	PingInterval time.Duration

	// PongTimeout is how long to wait for any read before treating the
	// connection as dead. Must exceed PingInterval.
	PongTimeout time.Duration

	// SendBuffer is the per-connection outgoing message buffer depth.
	SendBuffer int
}

// Hub manages WebSocket client connections and broadcasts events to rooms.
// It is safe for concurrent use.
type Hub struct {
	reg *registry.Registry

	mu      sync.RWMutex
	clients map[string]*Client

	optMu sync.RWMutex
	opts  Options
}

// New creates a Hub with the given connection options.
func New(opts Options) *Hub {
	return &Hub{
		reg:     registry.New(),
		clients: make(map[string]*Client),
		opts:    opts,
	}
}

// UpdateOptions replaces the connection options. Existing connections keep
// the options they were established with.
func (h *Hub) UpdateOptions(opts Options) {
	h.optMu.Lock()
	h.opts = opts
	h.optMu.Unlock()
}

func (h *Hub) options() Options {
	h.optMu.RLock()
	defer h.optMu.RUnlock()
	return h.opts
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// Blocks until the connection closes; the client is unconditionally dropped
// from every room on the way out.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := newClient(h, conn, h.options())
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump() // blocks until the connection closes
}

// Broadcast pushes one event to every current member of room and returns the
// number of deliveries handed to the transport. Members whose send buffer is
// full are skipped without affecting the rest; an empty or unknown room is a
// normal no-op. Membership cleanup is never triggered from here; that is the
// connection-close path's job exclusively.
func (h *Hub) Broadcast(room, eventName string, data json.RawMessage) int {
	env := event.Envelope{
		Event:     eventName,
		Data:      data,
		EmittedAt: time.Now().UTC(),
	}
	msg, err := json.Marshal(env)
	if err != nil {
		slog.Error("ws: marshal event failed", "event", eventName, "err", err)
		return 0
	}

	// Holding the read lock makes the member snapshot and the sends atomic
	// with respect to unregister: a connection mid-teardown is either fully
	// present (send succeeds or is buffered) or fully gone.
	h.mu.RLock()
	var delivered, dropped int
	for _, id := range h.reg.MembersOf(room) {
		c, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case c.send <- msg:
			delivered++
		default:
			// Slow consumer: drop this message, keep the connection.
			dropped++
		}
	}
	h.mu.RUnlock()

	metrics.ObserveBroadcast(eventName, delivered, dropped)
	slog.Debug("ws: broadcast",
		"room", room, "event", eventName, "delivered", delivered, "dropped", dropped)
	return delivered
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	return h.reg.RoomCount()
}

// CloseAll tears down every active connection. Called on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
		h.reg.DropConnection(id)
	}
	metrics.ConnectionsActive.Set(0)
	metrics.RoomsActive.Set(0)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.ConnectionsActive.Set(float64(n))
	slog.Info("ws: client connected", "conn_id", c.ID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
		h.reg.DropConnection(c.ID)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.ConnectionsActive.Set(float64(n))
	metrics.RoomsActive.Set(float64(h.reg.RoomCount()))
	slog.Info("ws: client disconnected", "conn_id", c.ID)
}

// join adds c to room and confirms with a room_joined event. The
// registration check, the registry mutation and the ack all happen under the
// read lock: unregister and CloseAll remove the client and close its send
// channel under the write lock, so a join either completes before the
// teardown (which then drops the membership) or is a no-op for the gone
// client. It can never touch a closed channel or leak a membership.
func (h *Hub) join(c *Client, room string) {
	msg, err := ackMessage(event.RoomJoined, room)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	h.reg.Join(c.ID, room)
	select {
	case c.send <- msg:
	default:
	}
	metrics.RoomsActive.Set(float64(h.reg.RoomCount()))
	slog.Debug("ws: joined room", "conn_id", c.ID, "room", room)
}

// leave removes c from room and confirms with a room_left event. Same lock
// discipline as join.
func (h *Hub) leave(c *Client, room string) {
	msg, err := ackMessage(event.RoomLeft, room)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	h.reg.Leave(c.ID, room)
	select {
	case c.send <- msg:
	default:
	}
	metrics.RoomsActive.Set(float64(h.reg.RoomCount()))
	slog.Debug("ws: left room", "conn_id", c.ID, "room", room)
}
