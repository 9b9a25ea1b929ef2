package ws_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dishpatch/dishpatch/pkg/event"
	wsHub "github.com/dishpatch/dishpatch/server/internal/ws"
)

func testOptions() wsHub.Options {
	return wsHub.Options{
		PingInterval: 50 * time.Millisecond,
		PongTimeout:  2 * time.Second,
		SendBuffer:   8,
	}
}

// --- helpers ----------------------------------------------------------------

// startHub starts a test HTTP server serving the hub and returns the ws://
// URL and the hub.
func startHub(t *testing.T, opts wsHub.Options) (string, *wsHub.Hub) {
	t.Helper()

	hub := wsHub.New(opts)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

// dial connects a WebSocket client to wsURL.
func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// join sends a join-room control message and consumes the room_joined ack.
func join(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()
	msg := `{"action":"join-room","room":"` + room + `"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("join %s: %v", room, err)
	}
	env := readEvent(t, conn)
	if env.Event != string(event.RoomJoined) {
		t.Fatalf("join %s: got event %q, want room_joined", room, env.Event)
	}
}

// leave sends a leave-room control message and consumes the room_left ack.
func leave(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()
	msg := `{"action":"leave-room","room":"` + room + `"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("leave %s: %v", room, err)
	}
	env := readEvent(t, conn)
	if env.Event != string(event.RoomLeft) {
		t.Fatalf("leave %s: got event %q, want room_left", room, env.Event)
	}
}

// readEvent reads one envelope from conn with a short deadline.
func readEvent(t *testing.T, conn *websocket.Conn) event.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var env event.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return env
}

// expectNoEvent asserts that nothing arrives on conn within wait.
func expectNoEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(wait)) //nolint:errcheck
	if _, msg, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no event, got %s", msg)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msg)
}

func rawData(t *testing.T, env event.Envelope) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(env.Data, &m); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	return m
}

// --- tests ------------------------------------------------------------------

func TestBroadcast_DeliversToRoomMember(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	join(t, conn, "restaurant_42")

	n := hub.Broadcast("restaurant_42", "new_order", json.RawMessage(`{"id":"o1"}`))
	if n != 1 {
		t.Errorf("Broadcast: delivered %d, want 1", n)
	}

	env := readEvent(t, conn)
	if env.Event != "new_order" {
		t.Errorf("event: got %q, want new_order", env.Event)
	}
	if got := rawData(t, env)["id"]; got != "o1" {
		t.Errorf("data.id: got %v, want o1", got)
	}
	if env.EmittedAt.IsZero() {
		t.Error("emitted_at: missing")
	}
}

func TestBroadcast_NonMemberReceivesNothing(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	member := dial(t, wsURL)
	join(t, member, "restaurant_42")

	other := dial(t, wsURL)
	join(t, other, "restaurant_7")

	hub.Broadcast("restaurant_42", "new_order", json.RawMessage(`{"id":"o1"}`))

	if env := readEvent(t, member); env.Event != "new_order" {
		t.Errorf("member: got %q, want new_order", env.Event)
	}
	expectNoEvent(t, other, 150*time.Millisecond)
}

func TestBroadcast_TwoMembers_EachExactlyOnce(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	a := dial(t, wsURL)
	join(t, a, "user_7")
	b := dial(t, wsURL)
	join(t, b, "user_7")

	n := hub.Broadcast("user_7", "order_accepted", json.RawMessage(`{"id":"o2"}`))
	if n != 2 {
		t.Errorf("Broadcast: delivered %d, want 2", n)
	}

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		env := readEvent(t, conn)
		if env.Event != "order_accepted" {
			t.Errorf("%s: got %q, want order_accepted", name, env.Event)
		}
		expectNoEvent(t, conn, 100*time.Millisecond)
	}
}

func TestBroadcast_EmptyRoom_ZeroDeliveriesNoError(t *testing.T) {
	_, hub := startHub(t, testOptions())

	if n := hub.Broadcast("restaurant_404", "new_order", json.RawMessage(`{}`)); n != 0 {
		t.Errorf("Broadcast to empty room: delivered %d, want 0", n)
	}
}

func TestLeave_StopsDelivery(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	join(t, conn, "user_7")
	leave(t, conn, "user_7")

	if n := hub.Broadcast("user_7", "order-update", json.RawMessage(`{}`)); n != 0 {
		t.Errorf("Broadcast after leave: delivered %d, want 0", n)
	}
	expectNoEvent(t, conn, 150*time.Millisecond)
}

func TestDisconnect_DropsAllMemberships(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	join(t, conn, "restaurant_42")
	join(t, conn, "driver-pool")
	if got := hub.RoomCount(); got != 2 {
		t.Fatalf("RoomCount: got %d, want 2", got)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 }, "client teardown")

	if got := hub.RoomCount(); got != 0 {
		t.Errorf("RoomCount after disconnect: got %d, want 0", got)
	}
	if n := hub.Broadcast("restaurant_42", "new_order", json.RawMessage(`{}`)); n != 0 {
		t.Errorf("Broadcast after disconnect: delivered %d, want 0", n)
	}
}

func TestBroadcast_DisconnectedMemberDoesNotBlockOthers(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	a := dial(t, wsURL)
	join(t, a, "restaurant_42")
	b := dial(t, wsURL)
	join(t, b, "restaurant_42")

	b.Close()
	waitFor(t, func() bool { return hub.Count() == 1 }, "b teardown")

	if n := hub.Broadcast("restaurant_42", "new_order", json.RawMessage(`{"id":"o3"}`)); n != 1 {
		t.Errorf("Broadcast: delivered %d, want 1", n)
	}
	if env := readEvent(t, a); env.Event != "new_order" {
		t.Errorf("a: got %q, want new_order", env.Event)
	}
}

func TestReconnect_NoReplay(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	join(t, conn, "restaurant_42")
	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 }, "teardown")

	// Broadcast while disconnected; it must be lost, not queued.
	hub.Broadcast("restaurant_42", "new_order", json.RawMessage(`{"id":"missed"}`))

	conn2 := dial(t, wsURL)
	join(t, conn2, "restaurant_42")
	hub.Broadcast("restaurant_42", "new_order", json.RawMessage(`{"id":"fresh"}`))

	env := readEvent(t, conn2)
	if got := rawData(t, env)["id"]; got != "fresh" {
		t.Errorf("data.id after reconnect: got %v, want fresh", got)
	}
	expectNoEvent(t, conn2, 100*time.Millisecond)
}

func TestBroadcast_FIFOWithinRoom(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	join(t, conn, "user_7")

	for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		hub.Broadcast("user_7", "order-update", json.RawMessage(`{"id":"`+id+`"}`))
	}
	for _, want := range []string{"e1", "e2", "e3", "e4", "e5"} {
		env := readEvent(t, conn)
		if got := rawData(t, env)["id"]; got != want {
			t.Fatalf("order: got %v, want %s", got, want)
		}
	}
}

func TestJoin_Idempotent_SingleDelivery(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	join(t, conn, "user_7")
	join(t, conn, "user_7")

	if n := hub.Broadcast("user_7", "order-update", json.RawMessage(`{}`)); n != 1 {
		t.Errorf("Broadcast after double join: delivered %d, want 1", n)
	}
	readEvent(t, conn)
	expectNoEvent(t, conn, 100*time.Millisecond)
}

func TestInvalidControlMessage_ConnectionSurvives(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"warp","room":"x"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"join-room"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The connection must still work after garbage input.
	join(t, conn, "user_7")
	hub.Broadcast("user_7", "order-update", json.RawMessage(`{}`))
	if env := readEvent(t, conn); env.Event != "order-update" {
		t.Errorf("event: got %q, want order-update", env.Event)
	}
}

func TestHeartbeat_SilentPeerIsCleanedUp(t *testing.T) {
	opts := wsHub.Options{
		PingInterval: 30 * time.Millisecond,
		PongTimeout:  120 * time.Millisecond,
		SendBuffer:   8,
	}
	wsURL, hub := startHub(t, opts)

	// Dial but never read: pings are never answered with pongs, so the read
	// deadline on the server side expires.
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.Count() == 0 }, "heartbeat cleanup")
}

func TestCloseAll_TearsDownClients(t *testing.T) {
	wsURL, hub := startHub(t, testOptions())

	conn := dial(t, wsURL)
	join(t, conn, "user_7")

	hub.CloseAll()
	if got := hub.Count(); got != 0 {
		t.Errorf("Count after CloseAll: got %d, want 0", got)
	}
	if got := hub.RoomCount(); got != 0 {
		t.Errorf("RoomCount after CloseAll: got %d, want 0", got)
	}

	// The client eventually observes the close.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestNonWebSocketRequest_Returns400(t *testing.T) {
	hub := wsHub.New(testOptions())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	// Plain HTTP GET without WebSocket upgrade headers → 400.
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
