package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dishpatch/dishpatch/pkg/event"
)

// writeWait is the maximum time allowed to write a single message to the peer.
const writeWait = 10 * time.Second

// maxMessageSize is the maximum inbound control message size in bytes.
const maxMessageSize = 1024

// controlMessage is the JSON envelope clients send to manage room membership.
type controlMessage struct {
	Action string `json:"action"` // "join-room" | "leave-room"
	Room   string `json:"room"`
}

// Client represents a single WebSocket connection.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	opts Options
}

func newClient(h *Hub, conn *websocket.Conn, opts Options) *Client {
	return &Client{
		ID:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, opts.SendBuffer),
		opts: opts,
	}
}

// ackMessage builds the envelope for a room_joined / room_left confirmation.
func ackMessage(name event.Name, room string) ([]byte, error) {
	data, err := json.Marshal(event.AckData{Room: room})
	if err != nil {
		return nil, err
	}
	return json.Marshal(event.Envelope{
		Event:     string(name),
		Data:      data,
		EmittedAt: time.Now().UTC(),
	})
}

// readPump reads control messages from the connection until it closes.
// It also enforces the heartbeat: the read deadline is pushed forward on
// every pong, so a silent peer times out after PongTimeout.
func (c *Client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws: read error", "conn_id", c.ID, "err", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout)) //nolint:errcheck

		var cm controlMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			slog.Warn("ws: invalid control message", "conn_id", c.ID, "err", err)
			continue
		}
		if cm.Room == "" {
			slog.Warn("ws: control message without room", "conn_id", c.ID, "action", cm.Action)
			continue
		}

		switch cm.Action {
		case "join-room":
			c.hub.join(c, cm.Room)
		case "leave-room":
			c.hub.leave(c, cm.Room)
		default:
			slog.Warn("ws: unknown action", "conn_id", c.ID, "action", cm.Action)
		}
	}
}

// writePump drains the send channel to the connection and pings the peer on
// the configured interval. Runs in its own goroutine per client.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				// Hub closed the channel (unregister or shutdown).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
