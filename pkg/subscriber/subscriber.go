package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dishpatch/dishpatch/pkg/event"
)

// writeWait bounds a single control-message write.
const writeWait = 5 * time.Second

// Handler processes the payload of one received event.
type Handler func(data json.RawMessage)

// controlMessage mirrors the server's join/leave protocol.
type controlMessage struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

type ack struct {
	name event.Name
	room string
}

// Subscriber is one live client session.
type Subscriber struct {
	conn *websocket.Conn

	mu       sync.Mutex
	handlers map[string]Handler
	joined   map[string]struct{}
	closed   bool

	writeMu sync.Mutex

	acks chan ack
	done chan struct{}
	err  error
}

// Dial opens a connection to the connection server's WebSocket endpoint
// (e.g. "ws://localhost:8080/ws") and starts the read loop.
func Dial(ctx context.Context, url string) (*Subscriber, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("subscriber: dial %s: %w", url, err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	s := &Subscriber{
		conn:     conn,
		handlers: make(map[string]Handler),
		joined:   make(map[string]struct{}),
		acks:     make(chan ack, 8),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// On registers fn for eventName, replacing any previous handler. Events with
// no handler are dropped silently — missed or unknown events are normal.
func (s *Subscriber) On(eventName string, fn Handler) {
	s.mu.Lock()
	s.handlers[eventName] = fn
	s.mu.Unlock()
}

// Join subscribes to room and blocks until the server confirms or ctx is
// done. The confirmation shares the connection's send buffer with ordinary
// events, so under heavy traffic it can be dropped even though the
// membership took effect; always pass a ctx with a deadline and retry on
// expiry, which is safe because joining is idempotent.
func (s *Subscriber) Join(ctx context.Context, room string) error {
	if err := s.sendControl("join-room", room); err != nil {
		return err
	}
	if err := s.awaitAck(ctx, event.RoomJoined, room); err != nil {
		return err
	}
	s.mu.Lock()
	s.joined[room] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Leave unsubscribes from room and blocks until the server confirms or ctx
// is done. The same deadline-and-retry guidance as Join applies.
func (s *Subscriber) Leave(ctx context.Context, room string) error {
	if err := s.sendControl("leave-room", room); err != nil {
		return err
	}
	if err := s.awaitAck(ctx, event.RoomLeft, room); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.joined, room)
	s.mu.Unlock()
	return nil
}

// Close leaves all joined rooms on a best-effort basis and closes the
// transport. Safe to call more than once and on any exit path.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	rooms := make([]string, 0, len(s.joined))
	for room := range s.joined {
		rooms = append(rooms, room)
	}
	s.mu.Unlock()

	// The server would drop memberships on disconnect anyway; explicit leaves
	// just make the teardown orderly.
	for _, room := range rooms {
		_ = s.sendControl("leave-room", room)
	}

	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}

// Done closes when the connection is gone. Callers should then resync state
// via a plain fetch and, if still interested, Dial a fresh session and
// re-join their rooms — nothing is replayed.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Err reports why the read loop stopped, once Done is closed. A deliberate
// Close yields a normal close error.
func (s *Subscriber) Err() error {
	<-s.done
	return s.err
}

// --- internal ---------------------------------------------------------------

func (s *Subscriber) sendControl(action, room string) error {
	if room == "" {
		return fmt.Errorf("subscriber: room must not be empty")
	}
	msg, err := json.Marshal(controlMessage{Action: action, Room: room})
	if err != nil {
		return fmt.Errorf("subscriber: marshal control: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("subscriber: %s %s: %w", action, room, err)
	}
	return nil
}

// awaitAck waits for the matching confirmation event. Acks for other rooms
// (possible when Join/Leave interleave) are discarded.
func (s *Subscriber) awaitAck(ctx context.Context, name event.Name, room string) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("subscriber: waiting for %s of %s: %w", name, room, ctx.Err())
		case <-s.done:
			return fmt.Errorf("subscriber: connection closed while waiting for %s of %s", name, room)
		case a := <-s.acks:
			if a.name == name && a.room == room {
				return nil
			}
		}
	}
}

// readLoop dispatches incoming envelopes until the connection closes.
func (s *Subscriber) readLoop() {
	defer close(s.done)

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.err = err
			return
		}

		var env event.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			continue
		}

		switch event.Name(env.Event) {
		case event.RoomJoined, event.RoomLeft:
			var a event.AckData
			if err := json.Unmarshal(env.Data, &a); err != nil {
				continue
			}
			select {
			case s.acks <- ack{name: event.Name(env.Event), room: a.Room}:
			default:
			}
		default:
			s.mu.Lock()
			fn := s.handlers[env.Event]
			s.mu.Unlock()
			if fn != nil {
				fn(env.Data)
			}
		}
	}
}
