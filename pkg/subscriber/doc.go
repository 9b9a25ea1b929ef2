// Package subscriber is the client-side library for the connection server.
//
// A Subscriber dials the /ws endpoint, joins the rooms relevant to its
// context (restaurant, user, driver pool) and dispatches incoming events to
// handlers registered per event name. Join and Leave are synchronous: they
// return once the server confirms with a room_joined / room_left event.
//
// Delivery is best-effort with no replay: events broadcast while the
// subscriber was disconnected are gone, and a reconnect is a brand-new
// session that must re-register handlers' rooms. Done() closes when the
// connection is lost so callers can resynchronize state through a plain
// fetch (e.g. the order API's read endpoints) and dial again.
//
// Register handlers before joining rooms. Join, Leave and Close are meant to
// be driven from a single goroutine; handlers run on the read loop and must
// not block.
package subscriber
