// Package ws implements the connection server: the WebSocket endpoint that
// holds every live client connection and fans events out to rooms.
//
// Hub owns the set of connected clients and the room registry. ServeHTTP
// upgrades an HTTP connection to WebSocket, registers the client, and blocks
// until the connection closes; cleanup (registry drop, counter updates) runs
// on every exit path, including heartbeat timeouts and abnormal closes.
//
// Client→server control messages:
//
//	{"action": "join-room",  "room": "restaurant_42"}
//	{"action": "leave-room", "room": "restaurant_42"}
//
// Both are confirmed with a room_joined / room_left event. Server→client
// messages use the envelope from pkg/event:
//
//	{"event": "new_order", "data": {...}, "emitted_at": "2026-08-29T12:00:00Z"}
//
// Delivery is best-effort and at-most-once: a member whose send buffer is
// full has that message dropped, and nothing is replayed after a reconnect.
// A reconnecting client is a brand-new connection and must re-join its rooms.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The WebSocket endpoint is mounted at /ws by the server.
package ws
