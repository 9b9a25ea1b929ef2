// Package gateway implements the internal notification gateway: the trusted
// HTTP entry point through which the stateless request-handling tier triggers
// room broadcasts on the connection server.
//
// Contract (POST /internal/notify):
//
//	{"room": "restaurant_42", "event": "new_order", "data": {...}}
//
// The shared secret travels in a configurable header (default x-internal-key).
// A missing credential is rejected with 401 and a wrong one with 403; a
// malformed body or missing room/event with 400. No broadcast is attempted on
// any rejection. On success the gateway forwards to the hub's broadcast
// operation and returns 200 immediately; it does not wait for per-client
// delivery, which stays best-effort.
//
// Auth settings are read through a getter on every request so that config hot
// reloads take effect without restarting.
package gateway
